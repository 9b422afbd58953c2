package socket

// Request tags mirror the single-letter verbs of spec.md §4.9's request
// set, sent by workers to the I/O thread. The wire form described there
// ("{tag(1), length(1), payload}" over a pipe) is simplified here to a
// Go struct queued behind the control pipe's wakeup byte: nothing in
// this runtime reads the pipe's bytes as a packed C struct, and a typed
// Go value avoids a marshal/unmarshal round trip for data that never
// leaves the process.
type requestTag byte

const (
	reqResume requestTag = 'R' // enable read
	reqPause  requestTag = 'S' // disable read
	reqListen requestTag = 'L' // register a PreListen fd with the I/O thread
	reqKill   requestTag = 'K' // close (graceful or forced)
	reqOpen   requestTag = 'O' // connect
	reqExit   requestTag = 'X' // shut down the I/O thread
	reqWrite  requestTag = 'W' // enable writability (direct-write handoff)
	reqData   requestTag = 'D' // send, high priority
	reqPush   requestTag = 'P' // send, low priority
	reqUDPTo  requestTag = 'A' // sendto, UDP
	reqSetUDP requestTag = 'C' // set current UDP peer
)

type request struct {
	tag        requestTag
	id         uint32
	host       string
	port       int
	owner      uint32
	payload    []byte
	udpAddress []byte
	shutdown   bool
}
