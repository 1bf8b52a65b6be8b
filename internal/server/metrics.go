package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type metric struct {
	name  string
	help  string
	kind  string
	value int64
}

// GET /metrics
//
// Counters are written in the Prometheus text exposition format, labelled
// with the generator's machine ID.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	m := s.gen.Metrics()
	healthy := int64(1)
	if s.failing.Load() {
		healthy = 0
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	writeMetrics(w, s.gen.MachineID(), []metric{
		{"snowflake_ids_generated_total", "Total number of IDs generated", "counter", m.Generated},
		{"snowflake_clock_backward_total", "Number of times the clock moved backward within tolerance (waited out)", "counter", m.ClockBackward},
		{"snowflake_clock_backward_errors_total", "Number of clock regressions beyond tolerance", "counter", m.ClockBackwardErr},
		{"snowflake_sequence_overflow_total", "Number of sequence exhaustions (waited for the next millisecond)", "counter", m.SequenceOverflow},
		{"snowflake_timestamp_overflow_total", "Number of generations past the layout's timestamp horizon", "counter", m.TimestampOverflow},
		{"snowflake_wait_time_microseconds_total", "Total time spent waiting in microseconds", "counter", m.WaitTimeUs},
		{"snowflake_generator_healthy", "1 unless the last generation failed fatally", "gauge", healthy},
	})
}

func writeMetrics(w io.Writer, machineID uint64, metrics []metric) {
	for _, m := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", m.name, m.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", m.name, m.kind)
		fmt.Fprintf(w, "%s{machine=\"%d\"} %d\n", m.name, machineID, m.value)
	}
}
