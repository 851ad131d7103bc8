package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/contextcraft/contextcraft/pkg/errors"
	"github.com/contextcraft/contextcraft/pkg/logging"
)

// AlertSeverity represents the severity level of an alert
type AlertSeverity int

const (
	// SeverityInfo - informational alerts
	SeverityInfo AlertSeverity = iota
	// SeverityWarning - warning alerts that need attention
	SeverityWarning
	// SeverityError - error alerts that need immediate attention
	SeverityError
	// SeverityCritical - critical alerts that need urgent attention
	SeverityCritical
)

func (s AlertSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Alert represents an alert that needs to be sent
type Alert struct {
	ID          string            `json:"id"`
	Severity    AlertSeverity     `json:"severity"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Source      string            `json:"source"`
	Timestamp   time.Time         `json:"timestamp"`
	Tags        map[string]string `json:"tags"`
}

// AlertHandler defines the interface for handling alerts
type AlertHandler interface {
	HandleAlert(ctx context.Context, alert Alert) error
	Name() string
}

// AlertManager manages alert generation and routing
type AlertManager struct {
	handlers []AlertHandler
	mutex    sync.Mutex
	logger   *logging.Logger

	// Rate limiting per alert source
	alertCounts   map[string]int
	lastReset     time.Time
	rateLimit     int
	resetInterval time.Duration
}

// NewAlertManager creates a new alert manager
func NewAlertManager() *AlertManager {
	return &AlertManager{
		handlers:      make([]AlertHandler, 0),
		logger:        logging.GetLogger(),
		alertCounts:   make(map[string]int),
		lastReset:     time.Now(),
		rateLimit:     100,
		resetInterval: time.Hour,
	}
}

// AddHandler adds an alert handler
func (am *AlertManager) AddHandler(handler AlertHandler) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	am.handlers = append(am.handlers, handler)
	am.logger.Info("Alert handler added", "handler", handler.Name())
}

// SendAlert sends an alert to all registered handlers
func (am *AlertManager) SendAlert(ctx context.Context, alert Alert) error {
	am.mutex.Lock()
	handlers := make([]AlertHandler, len(am.handlers))
	copy(handlers, am.handlers)
	allowed := am.checkRateLimit(alert.Source)
	am.mutex.Unlock()

	if !allowed {
		am.logger.Warn("Alert rate limit exceeded",
			"source", alert.Source,
			"title", alert.Title,
		)
		return fmt.Errorf("alert rate limit exceeded for source: %s", alert.Source)
	}

	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}
	if alert.ID == "" {
		alert.ID = fmt.Sprintf("%s-%d", alert.Source, alert.Timestamp.UnixNano())
	}

	var lastErr error
	successCount := 0

	for _, handler := range handlers {
		if err := handler.HandleAlert(ctx, alert); err != nil {
			am.logger.Error("Alert handler failed",
				"handler", handler.Name(),
				"alert_id", alert.ID,
				"error", err,
			)
			lastErr = err
		} else {
			successCount++
		}
	}

	if successCount == 0 && lastErr != nil {
		return fmt.Errorf("all alert handlers failed: %w", lastErr)
	}

	return nil
}

// checkRateLimit must be called with the mutex held
func (am *AlertManager) checkRateLimit(source string) bool {
	now := time.Now()

	if now.Sub(am.lastReset) >= am.resetInterval {
		am.alertCounts = make(map[string]int)
		am.lastReset = now
	}

	count := am.alertCounts[source]
	if count >= am.rateLimit {
		return false
	}

	am.alertCounts[source] = count + 1
	return true
}

// LoggingAlertHandler logs alerts to the application logger
type LoggingAlertHandler struct {
	logger *logging.Logger
}

// NewLoggingAlertHandler creates a new logging alert handler
func NewLoggingAlertHandler() *LoggingAlertHandler {
	return &LoggingAlertHandler{
		logger: logging.GetLogger(),
	}
}

// HandleAlert handles an alert by logging it
func (h *LoggingAlertHandler) HandleAlert(ctx context.Context, alert Alert) error {
	fields := []interface{}{
		"alert_id", alert.ID,
		"severity", alert.Severity.String(),
		"source", alert.Source,
		"description", alert.Description,
	}

	for key, value := range alert.Tags {
		fields = append(fields, fmt.Sprintf("tag_%s", key), value)
	}

	switch alert.Severity {
	case SeverityInfo:
		h.logger.Info("ALERT: "+alert.Title, fields...)
	case SeverityWarning:
		h.logger.Warn("ALERT: "+alert.Title, fields...)
	default:
		h.logger.Error("ALERT: "+alert.Title, fields...)
	}

	return nil
}

// Name returns the name of the handler
func (h *LoggingAlertHandler) Name() string {
	return "logging"
}

// ErrorAlertGenerator generates alerts from provider errors
type ErrorAlertGenerator struct {
	alertManager *AlertManager
	logger       *logging.Logger
}

// NewErrorAlertGenerator creates a new error alert generator
func NewErrorAlertGenerator(alertManager *AlertManager) *ErrorAlertGenerator {
	return &ErrorAlertGenerator{
		alertManager: alertManager,
		logger:       logging.GetLogger(),
	}
}

// HandleError processes an error and generates an appropriate alert
func (eag *ErrorAlertGenerator) HandleError(ctx context.Context, err error, source string) {
	if err == nil {
		return
	}

	alert := Alert{
		Severity:    eag.determineSeverity(err),
		Title:       eag.generateTitle(err),
		Description: err.Error(),
		Source:      source,
		Tags: map[string]string{
			"error_kind": string(errors.GetKind(err)),
		},
	}

	if IsCircuitBreakerError(err) {
		alert.Tags["circuit_breaker"] = "true"
	}

	if alertErr := eag.alertManager.SendAlert(ctx, alert); alertErr != nil {
		eag.logger.Error("Failed to send error alert",
			"original_error", err,
			"alert_error", alertErr,
			"source", source,
		)
	}
}

func (eag *ErrorAlertGenerator) determineSeverity(err error) AlertSeverity {
	if IsCircuitBreakerError(err) {
		return SeverityError
	}

	switch errors.GetKind(err) {
	case errors.KindProvider, errors.KindNetwork:
		return SeverityWarning
	case errors.KindConfiguration:
		return SeverityCritical
	case errors.KindValidation:
		return SeverityInfo
	default:
		return SeverityError
	}
}

func (eag *ErrorAlertGenerator) generateTitle(err error) string {
	switch errors.GetKind(err) {
	case errors.KindProvider:
		return "Provider Error"
	case errors.KindNetwork:
		return "Network Error"
	case errors.KindConfiguration:
		return "Configuration Error"
	case errors.KindValidation:
		return "Validation Error"
	case errors.KindContext:
		return "Context Generation Error"
	default:
		return "Unexpected Error"
	}
}

// HealthMonitor watches the health tracker and raises alerts when the
// overall fleet health changes
type HealthMonitor struct {
	alertManager *AlertManager
	tracker      *HealthTracker
	logger       *logging.Logger

	checkInterval time.Duration
	lastOverall   OverallHealth
	stopChan      chan struct{}
	running       bool
	mutex         sync.Mutex
}

// NewHealthMonitor creates a monitor over the given tracker
func NewHealthMonitor(alertManager *AlertManager, tracker *HealthTracker) *HealthMonitor {
	return &HealthMonitor{
		alertManager:  alertManager,
		tracker:       tracker,
		logger:        logging.GetLogger(),
		checkInterval: 30 * time.Second,
		lastOverall:   OverallUnknown,
		stopChan:      make(chan struct{}),
	}
}

// Start starts the background health checks
func (hm *HealthMonitor) Start(ctx context.Context) {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	if hm.running {
		return
	}

	hm.running = true
	go hm.monitorLoop(ctx)
	hm.logger.Info("Provider health monitor started")
}

// Stop stops the background health checks
func (hm *HealthMonitor) Stop() {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	if !hm.running {
		return
	}

	close(hm.stopChan)
	hm.running = false
	hm.logger.Info("Provider health monitor stopped")
}

func (hm *HealthMonitor) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(hm.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-hm.stopChan:
			return
		case <-ticker.C:
			hm.checkFleetHealth(ctx)
		}
	}
}

func (hm *HealthMonitor) checkFleetHealth(ctx context.Context) {
	report := hm.tracker.Report()

	if report.Overall == hm.lastOverall {
		return
	}

	var severity AlertSeverity
	switch report.Overall {
	case OverallHealthy:
		severity = SeverityInfo
	case OverallDegraded:
		severity = SeverityWarning
	case OverallCritical:
		severity = SeverityCritical
	default:
		severity = SeverityInfo
	}

	alert := Alert{
		Severity: severity,
		Title:    "Provider Fleet Health Changed",
		Description: fmt.Sprintf("Overall provider health changed from %s to %s (%d/%d healthy)",
			hm.lastOverall, report.Overall, report.HealthyCount, report.TotalCount),
		Source: "health_monitor",
		Tags: map[string]string{
			"previous": string(hm.lastOverall),
			"current":  string(report.Overall),
		},
	}

	if err := hm.alertManager.SendAlert(ctx, alert); err != nil {
		hm.logger.Error("Failed to send fleet health alert", "error", err)
	}

	hm.lastOverall = report.Overall
}
