package audit

import (
	"context"

	"github.com/you/homeauth/domain"
	"go.uber.org/zap"
)

// ZapAuditLogger implements domain.AuditLogger on a structured logger
type ZapAuditLogger struct {
	logger *zap.Logger
}

// NewZapAuditLogger creates an audit logger tagging every entry with audit=true
func NewZapAuditLogger(logger *zap.Logger) domain.AuditLogger {
	return &ZapAuditLogger{logger: logger.With(zap.Bool("audit", true))}
}

// LogEvent implements domain.AuditLogger
func (l *ZapAuditLogger) LogEvent(_ context.Context, event *domain.AuditEvent) {
	if event == nil {
		return
	}
	fields := []zap.Field{
		zap.String("event_type", string(event.EventType)),
		zap.Bool("success", event.Success),
		zap.Time("timestamp", event.Timestamp),
	}
	if event.IdentityID != "" {
		fields = append(fields, zap.String("identity_id", event.IdentityID))
	}
	if event.Kind != "" {
		fields = append(fields, zap.String("kind", string(event.Kind)))
	}
	if event.Phone != "" {
		fields = append(fields, zap.String("phone", maskPhone(event.Phone)))
	}
	if event.IPAddress != "" {
		fields = append(fields, zap.String("ip", event.IPAddress))
	}
	if event.ErrorMsg != "" {
		fields = append(fields, zap.String("error", event.ErrorMsg))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}

	if event.Success {
		l.logger.Info("audit", fields...)
		return
	}
	l.logger.Warn("audit", fields...)
}

// maskPhone keeps the country prefix and last two digits
func maskPhone(phone string) string {
	if len(phone) <= 5 {
		return "***"
	}
	masked := []byte(phone)
	for i := 3; i < len(masked)-2; i++ {
		masked[i] = '*'
	}
	return string(masked)
}
