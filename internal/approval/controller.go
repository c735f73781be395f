package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/wallet-guard/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultSettleDelay is the pause between opening the surface and the first call into it.
	DefaultSettleDelay = time.Second

	// InvalidPasswordMessage annotates the second password prompt.
	InvalidPasswordMessage = "Invalid password"

	maxPasswordPrompts = 2
)

// Extractor decrypts the key of an identity.
type Extractor interface {
	ExtractKey(ctx context.Context, identity string, password []byte) (model.KeyPair, error)
}

// Controller runs approval workflows one at a time.
type Controller struct {
	opener      Opener
	keys        Extractor
	settleDelay time.Duration
	log         *zap.Logger

	sem *semaphore.Weighted
}

func NewController(opener Opener, keys Extractor, settleDelay time.Duration, logger *zap.Logger) *Controller {
	return &Controller{
		opener:      opener,
		keys:        keys,
		settleDelay: settleDelay,
		log:         logger.Named("approval"),
		sem:         semaphore.NewWeighted(1),
	}
}

// Authorize obtains the decrypted key pair for req.Identity from the user.
// It fails with model.ErrRejectedByUser when the user declines or gives no password
// and with model.ErrInvalidPassword after two wrong passwords.
func (c *Controller) Authorize(ctx context.Context, req model.ApprovalRequest) (model.KeyPair, error) {
	kp, _, err := c.Run(ctx, req)
	return kp, err
}

// Run is Authorize that also returns the finished flow.
// Requests queue while another workflow is in progress; cancelling ctx
// while queued returns ctx.Err() without opening a surface.
func (c *Controller) Run(ctx context.Context, req model.ApprovalRequest) (model.KeyPair, *Flow, error) {
	flow := newFlow(req)
	log := c.log.With(zap.String("identity", req.Identity), zap.String("operation", string(req.OperationType)))

	workflowsQueued.Inc()
	err := c.sem.Acquire(ctx, 1)
	workflowsQueued.Dec()
	if err != nil {
		return model.KeyPair{}, flow, err
	}
	defer c.sem.Release(1)

	log.Info("approval requested")

	kp, err := c.run(ctx, flow, log)

	workflowOutcomes.WithLabelValues(flow.State().String()).Inc()
	if err != nil {
		log.Info("approval failed", zap.Stringer("state", flow.State()), zap.Int("prompts", flow.Prompts()), zap.Error(err))
		return model.KeyPair{}, flow, err
	}
	log.Info("approval granted", zap.Int("prompts", flow.Prompts()))
	return kp, flow, nil
}

func (c *Controller) run(ctx context.Context, flow *Flow, log *zap.Logger) (model.KeyPair, error) {
	req := flow.Request

	surface, err := c.opener.Open(ctx)
	if err != nil {
		flow.transition(Rejected)
		return model.KeyPair{}, fmt.Errorf("failed to open approval context: %w", err)
	}
	if err := flow.transition(ContextOpened); err != nil {
		return model.KeyPair{}, err
	}
	defer func() {
		// Close even when the caller has gone away
		if err := surface.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn("failed to close approval context", zap.Error(err))
		}
	}()

	if err := c.settle(ctx); err != nil {
		flow.transition(Rejected)
		return model.KeyPair{}, err
	}

	if err := flow.transition(AwaitingConsent); err != nil {
		return model.KeyPair{}, err
	}
	accepted, err := surface.Confirm(ctx, ConfirmParams{
		Identity: req.Identity,
		Type:     req.OperationType,
		Details:  req.CallingDetails,
		Message:  req.UserMessage,
	})
	if err != nil || !accepted {
		flow.transition(Rejected)
		return model.KeyPair{}, rejection(ctx, err, log)
	}

	message := ""
	for {
		if err := flow.transition(AwaitingPassword); err != nil {
			return model.KeyPair{}, err
		}

		password, err := surface.PromptPassword(ctx, message, req.Identity)
		flow.prompts++
		if err != nil || password == "" {
			flow.transition(Rejected)
			return model.KeyPair{}, rejection(ctx, err, log)
		}

		pw := []byte(password)
		kp, err := c.keys.ExtractKey(ctx, req.Identity, pw)
		clear(pw)

		switch {
		case err == nil:
			if err := flow.transition(KeyExtracted); err != nil {
				return model.KeyPair{}, err
			}
			return kp, nil

		case errors.Is(err, model.ErrDecryptionFailed) && flow.prompts < maxPasswordPrompts:
			if err := flow.transition(PasswordInvalidRetry); err != nil {
				return model.KeyPair{}, err
			}
			message = InvalidPasswordMessage

		case errors.Is(err, model.ErrDecryptionFailed):
			flow.transition(ExtractionFailed)
			return model.KeyPair{}, model.ErrInvalidPassword

		default:
			flow.transition(ExtractionFailed)
			return model.KeyPair{}, err
		}
	}
}

func (c *Controller) settle(ctx context.Context) error {
	if c.settleDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.settleDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// rejection maps a declined or failed interaction to the error returned to the caller.
func rejection(ctx context.Context, err error, log *zap.Logger) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil && !errors.Is(err, model.ErrRejectedByUser) {
		log.Warn("approval surface failed", zap.Error(err))
	}
	return model.ErrRejectedByUser
}
