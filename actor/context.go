package actor

// Context is handed to a handler for the duration of one dispatch. It is
// owned by the Service and reused across dispatches (no per-message
// allocation), grounded on the teacher's actor/context pattern of a single
// long-lived *Context mutated per-invocation.
type Context struct {
	engine  *Engine
	self    *Service
	source  Handle
	session int32
	mtype   uint8
	payload []byte
}

func newContext(e *Engine) *Context {
	return &Context{engine: e}
}

func (c *Context) reset(self *Service, source Handle, session int32, mtype uint8, payload []byte) {
	c.self = self
	c.source = source
	c.session = session
	c.mtype = mtype
	c.payload = payload
}

// Self returns the Handle of the Service currently dispatching.
func (c *Context) Self() Handle { return c.self.handle }

// Source returns the sender of the message currently being handled.
func (c *Context) Source() Handle { return c.source }

// Session returns the session tag of the message currently being handled.
func (c *Context) Session() int32 { return c.session }

// Type returns the message type currently being handled.
func (c *Context) Type() uint8 { return c.mtype }

// Payload returns the payload of the message currently being handled.
func (c *Context) Payload() []byte { return c.payload }

// Send delivers msg to dest as the current Service (spec.md §4.3: handlers
// may call send from within dispatch).
func (c *Context) Send(dest Handle, mtype uint8, session int32, payload []byte) error {
	return c.engine.sendFrom(c.self.handle, dest, mtype, session, payload)
}

// NextSession allocates a new session id scoped to the current Service.
func (c *Context) NextSession() int32 {
	return c.self.NextSession()
}

// Timeout schedules a PTYPE_RESPONSE back to the current Service after the
// given number of ticks, implementing the TIMEOUT control verb inline for
// handler code (spec.md §4.7).
func (c *Context) Timeout(ticks uint32) int32 {
	session := c.self.NextSession()
	c.engine.wheel.insert(c.engine.wheel.currentTick()+ticks, c.self.handle, session)
	return session
}

// Command runs a control-plane verb as the current Service (spec.md §4.7).
func (c *Context) Command(verb, arg string) (string, bool) {
	return c.engine.command(c.self.handle, verb, arg)
}

// SetHandler binds the message handler for the current Service, the Go
// equivalent of skynet_callback(context, userdata, callback): a Module's
// Init is expected to call this once to install the callback that every
// subsequent dispatch invokes.
func (c *Context) SetHandler(h Handler) {
	c.self.handler = h
}

// Engine returns the owning Engine, letting a Module's Init reach
// facilities beyond the current-dispatch accessors above (e.g.
// RegisterModule for a factory service, or SetHarborDelegate).
func (c *Context) Engine() *Engine {
	return c.engine
}
