package vitamin

import (
	"unsafe"
)

func safeString(s string) string {
	if len(s) == 0 {
		return "\x00"
	}
	if s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = safeString(list[i])
	}
	return out
}

func trimNull(s string) string {
	for len(s) > 0 && s[len(s)-1] == '\x00' {
		s = s[:len(s)-1]
	}
	return s
}

// sliceUint32 reinterprets SPIR-V bytes as words without copying.
func sliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

// checkExisting splits required into the names present in actual and a count
// of the missing ones. Both lists may or may not be null terminated.
func checkExisting(actual, required []string) (existing []string, missing int) {
	have := make(map[string]struct{}, len(actual))
	for _, name := range actual {
		have[trimNull(name)] = struct{}{}
	}
	for _, name := range required {
		if _, ok := have[trimNull(name)]; ok {
			existing = append(existing, safeString(name))
		} else {
			missing++
		}
	}
	return existing, missing
}

func clamp(val, lo, hi uint32) uint32 {
	if val < lo {
		val = lo
	}
	if val > hi {
		val = hi
	}
	return val
}
