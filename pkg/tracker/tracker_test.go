package tracker

import (
	"sync"
	"testing"
)

func TestTracker(t *testing.T) {
	tr := New()

	tr.TrackAPISuccess("azure-speech")
	tr.TrackAPISuccess("azure-speech")
	tr.TrackAPIFailure("azure-speech")
	tr.TrackFallback("azure-speech")
	tr.TrackCancel("edge-tts")

	snap := tr.Snapshot()

	az := snap["azure-speech"]
	if az.APISuccess != 2 {
		t.Errorf("APISuccess = %d, want 2", az.APISuccess)
	}
	if az.APIFailures != 1 {
		t.Errorf("APIFailures = %d, want 1", az.APIFailures)
	}
	if az.Fallbacks != 1 {
		t.Errorf("Fallbacks = %d, want 1", az.Fallbacks)
	}

	edge := snap["edge-tts"]
	if edge.Cancels != 1 {
		t.Errorf("Cancels = %d, want 1", edge.Cancels)
	}
}

func TestTrackerConcurrent(t *testing.T) {
	tr := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.TrackAPISuccess("fish-audio")
			}
		}()
	}
	wg.Wait()

	if got := tr.Snapshot()["fish-audio"].APISuccess; got != 1000 {
		t.Errorf("APISuccess = %d, want 1000", got)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := New()
	tr.TrackAPISuccess("azure-speech")

	snap := tr.Snapshot()
	snap["azure-speech"] = ProviderStats{APISuccess: 99}

	if got := tr.Snapshot()["azure-speech"].APISuccess; got != 1 {
		t.Errorf("Snapshot mutation leaked into tracker: %d", got)
	}
}
