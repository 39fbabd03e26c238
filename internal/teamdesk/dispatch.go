package teamdesk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"teamdesk/internal/logging"
	"teamdesk/internal/services"
	"teamdesk/internal/soap"
)

const methodLogin = "Login"

// session moves from unauthenticated to authenticated once; only Close
// resets it.
type session struct {
	token string
}

func (s session) authenticated() bool {
	return s.token != ""
}

// call dispatches one operation: it makes sure a transport exists, logs in
// first when no session is held, normalizes the parameters, and unwraps the
// <Method>Result element.
func (c *Client) call(ctx context.Context, method string, params soap.Params) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	transport := c.ensureTransport()
	if !c.session.authenticated() && method != methodLogin {
		if err := c.authenticate(ctx, transport); err != nil {
			return Result{}, err
		}
	}
	return c.invoke(ctx, transport, method, c.normalize(params))
}

func (c *Client) authenticate(ctx context.Context, transport *soap.Client) error {
	var params soap.Params
	params.Set("email", c.login)
	params.Set("password", c.password)

	result, err := c.invoke(ctx, transport, methodLogin, c.normalize(params))
	if err != nil {
		return err
	}
	token := strings.TrimSpace(result.Node().Lookup("SessionId").Value())
	if token == "" {
		return invalidResponse(methodLogin, "no session id in login result")
	}

	c.session = session{token: token}
	transport.SetHeaders(soap.Header{
		Namespace: SessionNamespace,
		Name:      SessionHeaderName,
		Fields:    soap.Params{{Name: SessionField, Value: token}},
	})
	c.logger.Debug("session established")
	return nil
}

// normalize returns a copy of params with every string converted to UTF-8.
func (c *Client) normalize(params soap.Params) soap.Params {
	out := make(soap.Params, 0, len(params))
	for _, param := range params {
		switch value := param.Value.(type) {
		case string:
			param.Value = c.normalizer.String(value)
		case []string:
			param.Value = c.normalizer.Strings(value)
		case soap.Params:
			param.Value = c.normalize(value)
		}
		out = append(out, param)
	}
	return out
}

func (c *Client) invoke(ctx context.Context, transport *soap.Client, method string, params soap.Params) (Result, error) {
	requestID := uuid.NewString()
	ctx = services.WithRequestID(services.WithOperation(ctx, method), requestID)

	started := time.Now()
	payload, callErr := transport.Call(ctx, method, params)
	result, err := interpret(method, payload, callErr)

	event := CallEvent{
		RequestID: requestID,
		Method:    method,
		Started:   started,
		Duration:  time.Since(started),
		Outcome:   outcomeOf(result, err),
	}
	if err != nil {
		var fault *FaultError
		if errors.As(err, &fault) {
			event.Message = fault.Message
		} else {
			event.Message = err.Error()
		}
	}
	c.report(ctx, event)
	return result, err
}

func interpret(method string, payload *soap.Node, err error) (Result, error) {
	if err != nil {
		var fault *soap.Fault
		if errors.As(err, &fault) {
			return Result{}, &FaultError{Method: method, Code: fault.Code, Message: fault.Message}
		}
		if errors.Is(err, soap.ErrMalformedResponse) {
			return Result{}, invalidResponse(method, "%v", err)
		}
		return Result{}, fmt.Errorf("call %s: %w", method, err)
	}
	if node := payload.Child(method + "Result"); node != nil {
		return Result{kind: ResultValue, method: method, node: node}, nil
	}
	if payload.Empty() {
		return Result{kind: ResultEmpty, method: method}, nil
	}
	return Result{}, invalidResponse(method, "response %s has no %sResult element", payload.Name(), method)
}

func outcomeOf(result Result, err error) string {
	switch {
	case err == nil && result.Kind() == ResultEmpty:
		return OutcomeEmpty
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrRemoteFault):
		return OutcomeFault
	case errors.Is(err, ErrInvalidResponse):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}

func (c *Client) report(ctx context.Context, event CallEvent) {
	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("remote call finished", logging.Args(
		logging.String(logging.FieldOutcome, event.Outcome),
		logging.Duration(logging.FieldLatency, event.Duration),
	)...)
	if c.observer != nil {
		c.observer.ObserveCall(event)
	}
}
