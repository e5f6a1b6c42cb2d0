//go:build !windows

package fallback

// NewSystemEngine returns the native speech engine for this platform.
// Outside Windows that means shelling out to espeak-ng.
func NewSystemEngine(command string) Engine {
	return NewEspeakEngine(command)
}
