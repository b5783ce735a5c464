package service

import (
	"context"
	"errors"
	"fmt"

	"venue-approval-backend/internal/domain"
	"venue-approval-backend/internal/logger"
	"venue-approval-backend/internal/repository"
)

type hierarchyResolver struct {
	orgRepo repository.OrganizationRepository
}

func NewHierarchyResolver(orgRepo repository.OrganizationRepository) HierarchyResolver {
	return &hierarchyResolver{orgRepo: orgRepo}
}

// BuildApprovalChain walks up from org, adding each ancestor as a pending
// approver until the first level-1 ancestor or the root. A creator with no
// ancestors below level 1 gets every level-1 organization instead.
func (r *hierarchyResolver) BuildApprovalChain(ctx context.Context, org *domain.Organization) ([]domain.ApprovalStep, error) {
	logger.EnterMethod("hierarchyResolver.BuildApprovalChain", "orgID", org.ID, "level", org.Level)

	var chain []domain.ApprovalStep
	visited := map[string]bool{org.ID: true}
	parentID := org.ParentID

	for parentID != nil {
		if visited[*parentID] {
			logger.Warn("Cycle in organization hierarchy, stopping walk", "orgID", org.ID, "parentID", *parentID)
			break
		}
		visited[*parentID] = true

		parent, err := r.orgRepo.GetByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Parent organization missing, using partial approval chain",
					"orgID", org.ID, "missingParentID", *parentID, "chainLength", len(chain))
				break
			}
			logger.ExitMethodWithError("hierarchyResolver.BuildApprovalChain", err)
			return nil, fmt.Errorf("failed to load parent organization %s: %w", *parentID, err)
		}

		chain = append(chain, pendingStep(parent.ID))
		if parent.Level == domain.FinalApproverLevel {
			break
		}
		parentID = parent.ParentID
	}

	if len(chain) == 0 && org.Level != domain.FinalApproverLevel {
		approvers, err := r.orgRepo.ListByLevel(ctx, domain.FinalApproverLevel)
		if err != nil {
			logger.ExitMethodWithError("hierarchyResolver.BuildApprovalChain", err)
			return nil, fmt.Errorf("failed to list final approvers: %w", err)
		}
		for _, a := range approvers {
			if a.ID == org.ID {
				continue
			}
			chain = append(chain, pendingStep(a.ID))
		}
	}

	logger.ExitMethod("hierarchyResolver.BuildApprovalChain", "orgID", org.ID, "chainLength", len(chain))
	return chain, nil
}

func pendingStep(orgID string) domain.ApprovalStep {
	return domain.ApprovalStep{OrganizationID: orgID, Status: domain.ApprovalStatusPending}
}
