package collaborator

import (
	"context"
	"net/http"
	"time"

	"leasing-backoffice/internal/domain"
)

// CreditChecker scores a customer. Callers never pass an empty identifier.
type CreditChecker interface {
	CheckCredit(ctx context.Context, nationalID string) (*domain.CreditCheckResult, error)
}

type CreditClient struct {
	*baseClient
	now func() time.Time
}

var _ CreditChecker = (*CreditClient)(nil)

func NewCreditClient(baseURL string, timeout time.Duration, opts ...Option) *CreditClient {
	return &CreditClient{
		baseClient: newBaseClient("credit", baseURL, timeout, opts...),
		now:        time.Now,
	}
}

type creditRequest struct {
	NationalID string `json:"national_id"`
}

type creditWire struct {
	Status string `json:"status"`
	Score  *int   `json:"score"`
	Reason string `json:"reason"`
}

func (c *CreditClient) CheckCredit(ctx context.Context, nationalID string) (*domain.CreditCheckResult, error) {
	if nationalID == "" {
		return nil, domain.NewValidationError("credit.check", "national id is required")
	}
	var out creditWire
	if err := c.do(ctx, "check", http.MethodPost, "/rki/check", creditRequest{NationalID: nationalID}, &out); err != nil {
		return nil, err
	}
	return &domain.CreditCheckResult{
		Status:    domain.ParseCreditStatus(out.Status),
		Score:     out.Score,
		Reason:    out.Reason,
		CheckedAt: c.now().UTC(),
	}, nil
}
