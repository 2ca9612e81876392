package webhooks

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/go-logr/logr"
	admissionv1 "k8s.io/api/admission/v1"
	"k8s.io/apimachinery/pkg/util/validation/field"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/webhook"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	"ftoperator/pkg/api/v1alpha1"
	"ftoperator/pkg/core"
)

const (
	// ValidatePath is where the validating webhook for Bots is served.
	ValidatePath = "/validate-freqtrade-io-v1alpha1-bot"

	// immutableExchangeEnv toggles immutability enforcement for spec.exchange on
	// updates. Moving a running bot to another exchange usually means a new bot.
	immutableExchangeEnv = "ENFORCE_EXCHANGE_IMMUTABILITY"
)

// ValidateBot runs the shared spec validation on a defaulted copy of newBot plus
// the update-only guardrails. Pass a nil oldBot on create.
func ValidateBot(newBot, oldBot *v1alpha1.Bot) field.ErrorList {
	spec := newBot.DeepCopy().Spec
	core.DefaultSpec(&spec)
	errs := core.ValidateSpec(&spec)

	if exchangeImmutable() && oldBot != nil && oldBot.Spec.Exchange != newBot.Spec.Exchange {
		errs = append(errs, field.Forbidden(field.NewPath("spec", "exchange"), "exchange is immutable when "+immutableExchangeEnv+" is enabled"))
	}
	return errs
}

// exchangeImmutable reports whether immutableExchangeEnv is switched on. Unset or
// unrecognised values leave spec.exchange editable.
func exchangeImmutable() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(immutableExchangeEnv))) {
	case "1", "true", "yes", "on", "enforce":
		return true
	default:
		return false
	}
}

// BotValidator admits or denies Bot writes. It decodes the raw body itself so a
// malformed body is reported as such instead of as a generic decode failure.
type BotValidator struct {
	logger logr.Logger
}

var _ admission.Handler = &BotValidator{}

func NewBotValidator(logger logr.Logger) *BotValidator {
	return &BotValidator{logger: logger}
}

// Handle implements admission.Handler.
func (v *BotValidator) Handle(_ context.Context, req admission.Request) admission.Response {
	switch req.Operation {
	case admissionv1.Create, admissionv1.Update:
	default:
		return admission.Allowed("")
	}

	bot, err := v1alpha1.ParseBot(req.Object.Raw)
	if err != nil {
		if core.IsSchemaError(err) {
			return admission.Denied(err.Error())
		}
		return admission.Errored(http.StatusBadRequest, err)
	}

	var oldBot *v1alpha1.Bot
	if req.Operation == admissionv1.Update && len(req.OldObject.Raw) > 0 {
		// A stored object that no longer parses cannot anchor immutability checks.
		if parsed, err := v1alpha1.ParseBot(req.OldObject.Raw); err == nil {
			oldBot = parsed
		}
	}

	log := v.logger.WithValues("bot", req.Namespace+"/"+req.Name, "operation", req.Operation)
	if errs := ValidateBot(bot, oldBot); len(errs) > 0 {
		log.V(1).Info("denied", "violations", len(errs))
		return admission.Denied(core.FormatErrors(errs))
	}
	return admission.Allowed("").WithWarnings(core.SpecWarnings(&bot.Spec)...)
}

// SetupWithManager registers the validating webhook on the manager's webhook server.
func SetupWithManager(manager ctrl.Manager) {
	validator := NewBotValidator(ctrl.Log.WithName("webhooks").WithName("Bot"))
	manager.GetWebhookServer().Register(ValidatePath, &webhook.Admission{Handler: validator})
}
