package balance

// IsEarth classifies one sample: strictly warmer than the threshold is Earth,
// anything at or below it is sky. Every downstream signal depends on this
// single assumption, so the profiling pass inlines the same comparison.
func IsEarth(sample, threshold int8) bool {
	return sample > threshold
}
