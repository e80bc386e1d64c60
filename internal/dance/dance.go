// Package dance implements the dance request/response dispatch bus of
// spec.md §4.9: a named, typed command bound against a transaction context,
// dispatched to a registered handler, and answered with an HTTP-patterned
// status code. It is the engine's sole IPC-facing surface; internal/dancetransport
// is the only thing that talks to it from outside the process.
package dance

import (
	"strconv"

	"github.com/evomimic/holonengine/internal/herrors"
	"github.com/evomimic/holonengine/internal/holon"
	"github.com/evomimic/holonengine/internal/holonlog"
	"github.com/evomimic/holonengine/internal/holonmetrics"
	"github.com/evomimic/holonengine/internal/ids"
	"github.com/evomimic/holonengine/internal/space"
	"github.com/evomimic/holonengine/internal/txn"
	"github.com/evomimic/holonengine/internal/wire"
)

// DanceRequest is the bound, runtime form of a wire.DanceRequestWire: the
// dance name, its typed subject, and its body, both already resolved against
// a transaction context.
type DanceRequest struct {
	Name string
	Type wire.BoundDanceType
	Body wire.BoundRequestBody
}

// ResponseBodyKind discriminates ResponseBody, the handler-facing analogue
// of RequestBody (spec.md §4.9's DanceResponse.body).
type ResponseBodyKind int

const (
	ResponseNone ResponseBodyKind = iota
	ResponseHolon
	ResponseHolons
	ResponseParameterValues
)

// ResponseBody is a tagged struct over the response payload shapes a handler
// can return, mirroring the HolonReference/DanceType tagged-struct
// convention used throughout this codebase.
type ResponseBody struct {
	Kind            ResponseBodyKind
	Holon           holon.HolonReference
	Holons          []holon.HolonReference
	ParameterValues holon.PropertyMap
}

// DanceResponse is a handler's result before status-code/session-state
// bookkeeping is layered on by Dispatch.
type DanceResponse struct {
	Description   string
	Body          ResponseBody
	Descriptor    string
	HasDescriptor bool
}

// HandlerFunc implements one dance. It returns a plain Go error on failure;
// Dispatch maps it to a status code via herrors.StatusCodeOf, so handlers
// need not know about the wire status taxonomy at all.
type HandlerFunc func(ctx *txn.TransactionContext, req *DanceRequest) (*DanceResponse, error)

// Dispatcher routes named dance requests to registered handlers, binding and
// unbinding through the wire layer around a single HolonSpaceManager.
type Dispatcher struct {
	space    *space.HolonSpaceManager
	handlers map[string]HandlerFunc
}

// NewDispatcher builds a Dispatcher over mgr, pre-registering the built-in
// diagnostic dance (print_database) every space carries regardless of
// domain-specific registrations (SPEC_FULL.md supplemented features).
func NewDispatcher(mgr *space.HolonSpaceManager) *Dispatcher {
	d := &Dispatcher{space: mgr, handlers: make(map[string]HandlerFunc)}
	d.Register("print_database", d.printDatabase)
	d.registerBuiltins()
	return d
}

// Register adds or replaces the handler for name.
func (d *Dispatcher) Register(name string, fn HandlerFunc) {
	d.handlers[name] = fn
}

// Dispatch binds req against a transaction (opening one from req.SessionState
// if present, or a fresh one otherwise), resolves the named handler, and
// returns a fully wire-ready response — including the post-dispatch session
// state, so a caller driving several dances across one logical session keeps
// its pools synchronized without a separate round trip (spec.md §6
// SessionState: "ping-pong transaction-scoped pools across IPC").
func (d *Dispatcher) Dispatch(req wire.DanceRequestWire) wire.DanceResponseWire {
	log := holonlog.WithComponent("dance").WithDance(req.DanceName)
	ctx := d.resolveContext(req.SessionState)

	if req.SessionState != nil {
		if _, err := req.SessionState.Bind(ctx); err != nil {
			return d.errorResponse(ctx, req.DanceName, err)
		}
	}

	boundType, err := req.DanceType.Bind(ctx)
	if err != nil {
		return d.errorResponse(ctx, req.DanceName, err)
	}
	boundBody, err := req.Body.Bind(ctx)
	if err != nil {
		return d.errorResponse(ctx, req.DanceName, err)
	}

	handler, ok := d.handlers[req.DanceName]
	if !ok {
		return d.errorResponse(ctx, req.DanceName, herrors.NotImplemented("dance: "+req.DanceName))
	}

	resp, err := handler(ctx, &DanceRequest{Name: req.DanceName, Type: boundType, Body: boundBody})
	if err != nil {
		log.Error().Err(err).Msg("dance handler failed")
		return d.errorResponse(ctx, req.DanceName, err)
	}

	holonmetrics.DanceRequestsTotal.WithLabelValues(req.DanceName, statusLabel(herrors.StatusOK)).Inc()
	return d.successResponse(ctx, resp)
}

func (d *Dispatcher) resolveContext(state *wire.SessionStateWire) *txn.TransactionContext {
	mgr := d.space.GetTransactionManager()
	if state == nil {
		return mgr.Open()
	}
	return mgr.OpenWithID(ids.TxIdFrom(state.TxID))
}

func (d *Dispatcher) errorResponse(ctx *txn.TransactionContext, danceName string, err error) wire.DanceResponseWire {
	holonmetrics.DanceRequestsTotal.WithLabelValues(danceName, statusLabel(herrors.StatusCodeOf(err))).Inc()
	session := wire.FromTransactionContext(ctx, nil, nil)
	return wire.DanceResponseWire{
		StatusCode:   int(herrors.StatusCodeOf(err)),
		Description:  err.Error(),
		SessionState: &session,
	}
}

func (d *Dispatcher) successResponse(ctx *txn.TransactionContext, resp *DanceResponse) wire.DanceResponseWire {
	session := wire.FromTransactionContext(ctx, nil, nil)
	w := wire.DanceResponseWire{
		StatusCode:    int(herrors.StatusOK),
		Description:   resp.Description,
		Body:          toWireBody(resp.Body),
		SessionState:  &session,
		HasDescriptor: resp.HasDescriptor,
	}
	if resp.HasDescriptor {
		w.Descriptor = resp.Descriptor
	}
	return w
}

func toWireBody(b ResponseBody) wire.RequestBodyWire {
	switch b.Kind {
	case ResponseHolon:
		return wire.RequestBodyWire{Kind: wire.BodyHolonID, HolonID: wire.FromHolonReference(b.Holon)}
	case ResponseHolons:
		targets := make([]wire.HolonReferenceWire, len(b.Holons))
		for i, ref := range b.Holons {
			targets[i] = wire.FromHolonReference(ref)
		}
		return wire.RequestBodyWire{Kind: wire.BodyTargetHolons, TargetHolons: wire.TargetHolonsWire{Targets: targets}}
	case ResponseParameterValues:
		pm := make(map[string]wire.BaseValueWire, len(b.ParameterValues))
		for name, v := range b.ParameterValues {
			pm[string(name)] = wire.FromBaseValue(v)
		}
		return wire.RequestBodyWire{Kind: wire.BodyParameterValues, ParameterValues: pm}
	default:
		return wire.RequestBodyWire{Kind: wire.BodyNone}
	}
}

func statusLabel(code herrors.StatusCode) string {
	return strconv.Itoa(int(code))
}
