// Package app собирает use cases жизненного цикла поверх одного хранилища.
package app

import (
	"time"

	"github.com/ignatzorin/hiring-lifecycle/internal/domain/entity"
	"github.com/ignatzorin/hiring-lifecycle/internal/domain/repository"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/claim"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/compliance"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/delivery"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/hiring"
	"github.com/ignatzorin/hiring-lifecycle/internal/usecase/moderation"
)

type Deps struct {
	Repos          repository.Set
	Gateway        repository.PaymentGateway
	Storage        repository.FileStorage
	Notifier       repository.Notifier
	Clock          usecase.Clock
	Escalation     entity.EscalationPolicy
	MaxFileSize    int64
	PaymentTimeout time.Duration
	SweepBatch     int
}

type HiringUseCases struct {
	Create           *hiring.CreateHiringUseCase
	Start            *hiring.StartHiringUseCase
	Get              *hiring.GetHiringUseCase
	List             *hiring.ListHiringsUseCase
	ListDeliverables *hiring.ListDeliverablesUseCase
}

type DeliveryUseCases struct {
	Submit         *delivery.SubmitDeliveryUseCase
	Review         *delivery.ReviewDeliveryUseCase
	ConfirmPayment *delivery.ConfirmPaymentUseCase
	Get            *delivery.GetDeliveryUseCase
	List           *delivery.ListDeliveriesUseCase
}

type ClaimUseCases struct {
	CanCreate            *claim.CanCreateClaimUseCase
	Open                 *claim.OpenClaimUseCase
	StartReview          *claim.StartReviewUseCase
	RequestClarification *claim.RequestClarificationUseCase
	ProvideClarification *claim.ProvideClarificationUseCase
	Escalate             *claim.EscalateClaimUseCase
	Cancel               *claim.CancelClaimUseCase
	Reject               *claim.RejectClaimUseCase
	Resolve              *claim.ResolveClaimUseCase
	Get                  *claim.GetClaimUseCase
	List                 *claim.ListClaimsUseCase
}

type ComplianceUseCases struct {
	Submit      *compliance.SubmitComplianceUseCase
	PeerReview  *compliance.PeerReviewUseCase
	StartReview *compliance.StartReviewUseCase
	Decide      *compliance.DecideUseCase
	Get         *compliance.GetComplianceUseCase
	List        *compliance.ListCompliancesUseCase
	Sweep       *compliance.SweepUseCase
}

type ModerationUseCases struct {
	Resolve *moderation.ResolveAnalysisUseCase
	Flag    *moderation.FlagUserUseCase
	List    *moderation.ListAnalysesUseCase
}

// UseCases - все команды и запросы сервиса.
type UseCases struct {
	Hirings     HiringUseCases
	Deliveries  DeliveryUseCases
	Claims      ClaimUseCases
	Compliances ComplianceUseCases
	Moderation  ModerationUseCases
}

func NewUseCases(d Deps) *UseCases {
	r := d.Repos
	if d.Notifier == nil {
		d.Notifier = usecase.NopNotifier{}
	}

	claimDeps := claim.Deps{
		Tx:          r.Tx,
		Hirings:     r.Hirings,
		Claims:      r.Claims,
		Compliances: r.Compliances,
		Notifier:    d.Notifier,
		Clock:       d.Clock,
	}
	complianceDeps := compliance.Deps{
		Tx:          r.Tx,
		Compliances: r.Compliances,
		Claims:      r.Claims,
		Analyses:    r.Analyses,
		Notifier:    d.Notifier,
		Policy:      d.Escalation,
		MaxFileSize: d.MaxFileSize,
		Clock:       d.Clock,
	}
	moderationDeps := moderation.Deps{
		Tx:          r.Tx,
		Analyses:    r.Analyses,
		Users:       r.Users,
		Hirings:     r.Hirings,
		Claims:      r.Claims,
		Compliances: r.Compliances,
		Listings:    r.Listings,
		Notifier:    d.Notifier,
		Clock:       d.Clock,
	}

	return &UseCases{
		Hirings: HiringUseCases{
			Create:           hiring.NewCreateHiringUseCase(r.Tx, r.Hirings, r.Deliverables, d.Clock),
			Start:            hiring.NewStartHiringUseCase(r.Tx, r.Hirings, d.Clock),
			Get:              hiring.NewGetHiringUseCase(r.Hirings, r.Deliverables, r.Claims),
			List:             hiring.NewListHiringsUseCase(r.Hirings),
			ListDeliverables: hiring.NewListDeliverablesUseCase(r.Hirings, r.Deliverables),
		},
		Deliveries: DeliveryUseCases{
			Submit: delivery.NewSubmitDeliveryUseCase(r.Tx, r.Hirings, r.Deliverables, r.Deliveries, r.Claims, d.Notifier, d.MaxFileSize, d.Clock),
			Review: delivery.NewReviewDeliveryUseCase(delivery.ReviewDeliveryDeps{
				Tx:             r.Tx,
				Hirings:        r.Hirings,
				Deliverables:   r.Deliverables,
				Deliveries:     r.Deliveries,
				Claims:         r.Claims,
				Payments:       r.Payments,
				Gateway:        d.Gateway,
				Notifier:       d.Notifier,
				PaymentTimeout: d.PaymentTimeout,
				Clock:          d.Clock,
			}),
			ConfirmPayment: delivery.NewConfirmPaymentUseCase(r.Tx, r.Hirings, r.Deliverables, r.Deliveries, r.Payments, d.Notifier, d.Clock),
			Get:            delivery.NewGetDeliveryUseCase(r.Hirings, r.Deliveries, d.Storage),
			List:           delivery.NewListDeliveriesUseCase(r.Hirings, r.Deliveries, d.Storage),
		},
		Claims: ClaimUseCases{
			CanCreate:            claim.NewCanCreateClaimUseCase(r.Hirings, r.Claims),
			Open:                 claim.NewOpenClaimUseCase(r.Tx, r.Hirings, r.Claims, d.Notifier, d.Clock),
			StartReview:          claim.NewStartReviewUseCase(claimDeps),
			RequestClarification: claim.NewRequestClarificationUseCase(claimDeps),
			ProvideClarification: claim.NewProvideClarificationUseCase(claimDeps),
			Escalate:             claim.NewEscalateClaimUseCase(claimDeps),
			Cancel:               claim.NewCancelClaimUseCase(claimDeps),
			Reject:               claim.NewRejectClaimUseCase(claimDeps),
			Resolve:              claim.NewResolveClaimUseCase(claimDeps),
			Get:                  claim.NewGetClaimUseCase(r.Claims),
			List:                 claim.NewListClaimsUseCase(r.Claims),
		},
		Compliances: ComplianceUseCases{
			Submit:      compliance.NewSubmitComplianceUseCase(complianceDeps),
			PeerReview:  compliance.NewPeerReviewUseCase(complianceDeps),
			StartReview: compliance.NewStartReviewUseCase(complianceDeps),
			Decide:      compliance.NewDecideUseCase(complianceDeps),
			Get:         compliance.NewGetComplianceUseCase(complianceDeps),
			List:        compliance.NewListCompliancesUseCase(complianceDeps),
			Sweep:       compliance.NewSweepUseCase(complianceDeps, d.SweepBatch),
		},
		Moderation: ModerationUseCases{
			Resolve: moderation.NewResolveAnalysisUseCase(moderationDeps),
			Flag:    moderation.NewFlagUserUseCase(r.Analyses, r.Users, d.Clock),
			List:    moderation.NewListAnalysesUseCase(r.Analyses),
		},
	}
}
