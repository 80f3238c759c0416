package channel

// Direction names used by Metrics calls.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Result names used by Metrics.RecordProcessed.
const (
	ResultOK   = "ok"
	ResultFail = "fail"
)

// Metrics receives counters from a Driver as it runs. Implementations
// must be safe for concurrent use from a single Driver's two pumps;
// the default is a no-op so instrumentation is opt-in. pkg/metrics
// provides a Prometheus-backed implementation.
type Metrics interface {
	// RecordProcessed is called once per record encrypted or decrypted,
	// per direction. Passthrough traffic is not counted.
	RecordProcessed(direction, result string)

	// BytesTransferred adds n plaintext bytes moved in direction by an
	// encrypted record. Passthrough traffic is not counted.
	BytesTransferred(direction string, n int)

	// ActiveChannels adjusts the count of live channels by delta (+1 on
	// Driver start, -1 on completion).
	ActiveChannels(delta int)

	// ModeTransition is called once, when a channel latches Encrypted.
	ModeTransition()
}

type noopMetrics struct{}

func (noopMetrics) RecordProcessed(string, string) {}
func (noopMetrics) BytesTransferred(string, int)   {}
func (noopMetrics) ActiveChannels(int)             {}
func (noopMetrics) ModeTransition()                {}

// NoopMetrics is the Metrics implementation used when a Config leaves
// Metrics nil.
var NoopMetrics Metrics = noopMetrics{}
