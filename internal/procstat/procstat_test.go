package procstat

import (
	"os"
	"testing"
)

func TestSelf(t *testing.T) {
	st, err := Self()
	if err != nil {
		t.Fatalf("Self: %v", err)
	}
	if st.PID != os.Getpid() {
		t.Errorf("PID: got %d, want %d", st.PID, os.Getpid())
	}
	if st.RSSBytes == 0 {
		t.Error("RSS should be non-zero")
	}
	if st.CPUPercent < 0 {
		t.Errorf("CPU: got %f, want >= 0", st.CPUPercent)
	}
}
