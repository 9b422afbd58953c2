package actor

import (
	"strconv"
	"strings"
)

// command dispatches one control-plane verb issued by self, per the table
// in spec.md §4.7. It returns the short ASCII result string (empty if
// none) and whether the command succeeded.
func (e *Engine) command(self Handle, verb, arg string) (string, bool) {
	switch verb {
	case "TIMEOUT":
		return e.cmdTimeout(self, arg)
	case "REG":
		return e.cmdReg(self, arg)
	case "QUERY":
		return e.cmdQuery(arg)
	case "NAME":
		return e.cmdName(arg)
	case "EXIT":
		e.retire(self)
		return "", true
	case "KILL":
		return e.cmdKill(arg)
	case "LAUNCH":
		return e.cmdLaunch(arg)
	case "GETENV":
		v, ok := e.env.Get(arg)
		return v, ok
	case "SETENV":
		return e.cmdSetenv(arg)
	case "STARTTIME":
		return strconv.FormatInt(e.startTime.Unix(), 10), true
	case "ABORT":
		e.registry.retireAll(func(svc *Service) { e.release(svc) })
		return "", true
	case "MONITOR":
		return e.cmdMonitor(arg)
	case "STAT":
		return e.cmdStat(self, arg)
	case "LOGON":
		return e.cmdLogToggle(arg, true)
	case "LOGOFF":
		return e.cmdLogToggle(arg, false)
	case "SIGNAL":
		return e.cmdSignal(arg)
	default:
		return "", false
	}
}

func (e *Engine) cmdTimeout(self Handle, arg string) (string, bool) {
	ticks, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return "", false
	}
	svc := e.registry.grab(self)
	if svc == nil {
		return "", false
	}
	defer e.release(svc)
	session := svc.NextSession()
	e.wheel.insert(e.wheel.currentTick()+uint32(ticks), self, session)
	return strconv.FormatInt(int64(session), 10), true
}

func (e *Engine) cmdReg(self Handle, arg string) (string, bool) {
	if arg == "" {
		return self.String(), true
	}
	name := strings.TrimPrefix(arg, ".")
	if err := e.registry.bindName(name, self); err != nil {
		return "", false
	}
	return self.String(), true
}

func (e *Engine) cmdQuery(arg string) (string, bool) {
	name := strings.TrimPrefix(arg, ".")
	h, ok := e.registry.find(name)
	if !ok {
		return "", false
	}
	return h.String(), true
}

func (e *Engine) cmdName(arg string) (string, bool) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return "", false
	}
	name := strings.TrimPrefix(fields[0], ".")
	h, ok := ParseHandle(fields[1])
	if !ok {
		return "", false
	}
	if err := e.registry.bindName(name, h); err != nil {
		return "", false
	}
	return "", true
}

func (e *Engine) cmdKill(arg string) (string, bool) {
	h, ok := e.resolveName(arg)
	if !ok {
		return "", false
	}
	e.retire(h)
	return "", true
}

func (e *Engine) cmdLaunch(arg string) (string, bool) {
	fields := strings.SplitN(arg, " ", 2)
	if len(fields) == 0 || fields[0] == "" {
		return "", false
	}
	name := fields[0]
	args := ""
	if len(fields) == 2 {
		args = fields[1]
	}
	h, err := e.Spawn(name, args)
	if err != nil {
		return "", false
	}
	return h.String(), true
}

func (e *Engine) cmdSetenv(arg string) (string, bool) {
	fields := strings.SplitN(arg, " ", 2)
	if len(fields) != 2 {
		return "", false
	}
	e.env.Set(fields[0], fields[1])
	return "", true
}

func (e *Engine) cmdMonitor(arg string) (string, bool) {
	h, ok := ParseHandle(arg)
	if !ok {
		return "", false
	}
	e.exitWatcher.Store(uint32(h))
	return "", true
}

func (e *Engine) cmdStat(self Handle, arg string) (string, bool) {
	svc := e.registry.grab(self)
	if svc == nil {
		return "", false
	}
	defer e.release(svc)

	msgCount, cpuCost, mqlen := svc.Stats()
	switch arg {
	case "mqlen":
		return strconv.Itoa(mqlen), true
	case "endless":
		if svc.Endless() {
			return "1", true
		}
		return "0", true
	case "cpu":
		return strconv.FormatInt(cpuCost, 10), true
	case "time":
		return strconv.FormatInt(e.startTime.Unix(), 10), true
	case "message":
		return strconv.FormatInt(msgCount, 10), true
	case "errlog":
		return strings.Join(e.errSink.Recent(), "\n"), true
	default:
		return "", false
	}
}

func (e *Engine) cmdLogToggle(arg string, on bool) (string, bool) {
	h, ok := ParseHandle(arg)
	if !ok {
		return "", false
	}
	svc := e.registry.grab(h)
	if svc == nil {
		return "", false
	}
	defer e.release(svc)

	if !on {
		svc.SetLog(nil)
		return "", true
	}
	w, err := e.openServiceLog(h)
	if err != nil {
		return "", false
	}
	svc.SetLog(w)
	return "", true
}

func (e *Engine) cmdSignal(arg string) (string, bool) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return "", false
	}
	h, ok := ParseHandle(fields[0])
	if !ok {
		return "", false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", false
	}
	svc := e.registry.grab(h)
	if svc == nil {
		return "", false
	}
	defer e.release(svc)
	if svc.module != nil && svc.module.Signal != nil {
		svc.module.Signal(svc.inst, n)
	}
	return "", true
}

// resolveName accepts either a ":hex" Handle or a ".name" registry lookup,
// per spec.md §4.11's skynet_queryname grammar.
func (e *Engine) resolveName(arg string) (Handle, bool) {
	if strings.HasPrefix(arg, ":") {
		return ParseHandle(arg)
	}
	if strings.HasPrefix(arg, ".") {
		return e.registry.find(strings.TrimPrefix(arg, "."))
	}
	return 0, false
}
