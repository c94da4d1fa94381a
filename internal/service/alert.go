package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"leasing-backoffice/internal/domain"
	"leasing-backoffice/internal/logger"
)

// mailSender is the part of *sendgrid.Client the alert service uses.
type mailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

type sendGridAlertService struct {
	client    mailSender
	fromEmail string
	fromName  string
	toEmail   string
}

func NewSendGridAlertService(apiKey, fromEmail, fromName, operatorEmail string) AlertService {
	return newSendGridAlertService(sendgrid.NewSendClient(apiKey), fromEmail, fromName, operatorEmail)
}

func newSendGridAlertService(client mailSender, fromEmail, fromName, operatorEmail string) *sendGridAlertService {
	return &sendGridAlertService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		toEmail:   operatorEmail,
	}
}

func (s *sendGridAlertService) NotifyPartialSuccess(ctx context.Context, saga string, result *domain.LeaseResult) error {
	subject := fmt.Sprintf("Lease %d needs attention (%s)", result.Lease.ID, saga)
	return s.send(subject, partialSuccessBody(saga, result))
}

func (s *sendGridAlertService) NotifyUnallocatedLeases(ctx context.Context, leases []domain.Lease) error {
	if len(leases) == 0 {
		return nil
	}
	subject := fmt.Sprintf("%d active leases without a vehicle", len(leases))
	return s.send(subject, unallocatedBody(leases))
}

func (s *sendGridAlertService) send(subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("Lease operators", s.toEmail)
	message := mail.NewSingleEmail(from, subject, to, body, "")

	response, err := s.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.Info("Alert sent", "subject", subject, "to", s.toEmail)
	return nil
}

// logAlertService is used when e-mail alerts are disabled.
type logAlertService struct{}

func NewLogAlertService() AlertService {
	return logAlertService{}
}

func (logAlertService) NotifyPartialSuccess(ctx context.Context, saga string, result *domain.LeaseResult) error {
	logger.WarnContext(ctx, "Lease needs attention",
		"saga", saga,
		"lease_id", result.Lease.ID,
		"allocation_error", result.AllocationError,
		"vehicle_update_warning", result.VehicleUpdateWarning)
	return nil
}

func (logAlertService) NotifyUnallocatedLeases(ctx context.Context, leases []domain.Lease) error {
	for _, l := range leases {
		logger.WarnContext(ctx, "Active lease without vehicle", "lease_id", l.ID, "car_model", l.CarModel)
	}
	return nil
}

func partialSuccessBody(saga string, result *domain.LeaseResult) string {
	var b strings.Builder
	l := result.Lease
	fmt.Fprintf(&b, "Lease %d (%s, %s) finished %s with status %s.\n", l.ID, l.CustomerName, l.CarModel, saga, l.Status)
	fmt.Fprintf(&b, "Term %s at %s per month.\n\n", l.Term(), l.MonthlyPrice.StringFixed(2))
	if result.AllocationError != "" {
		fmt.Fprintf(&b, "Vehicle allocation: %s\n", result.AllocationError)
	}
	if result.VehicleUpdateWarning != "" {
		fmt.Fprintf(&b, "Vehicle update: %s\n", result.VehicleUpdateWarning)
	}
	b.WriteString("\nThe lease record is final. Please reconcile the vehicle in the fleet registry.\n")
	return b.String()
}

func unallocatedBody(leases []domain.Lease) string {
	var b strings.Builder
	b.WriteString("The following active leases have no vehicle bound:\n\n")
	for _, l := range leases {
		fmt.Fprintf(&b, "  #%d  %s  %s  starts %s  term %s  value %s\n",
			l.ID, l.CarModel, l.CustomerName, l.StartDate.Format(dateLayout), l.Term(), l.ContractValue().StringFixed(2))
	}
	return b.String()
}
