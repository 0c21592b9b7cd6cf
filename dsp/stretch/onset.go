package stretch

// OnsetBands is the number of coarse bands in an OnsetProfile.
const OnsetBands = 32

const onsetEnergyFloor = 1e-10

// OnsetProfile is the channel-averaged mean magnitude of 32 contiguous
// frequency bands of a half-spectrum.
type OnsetProfile [OnsetBands]float64

// Compute fills p from per-channel magnitude spectra. Each entry of mags
// holds half+1 bins. Band i spans bins [i*half/32, (i+1)*half/32 - 1].
func (p *OnsetProfile) Compute(mags [][]float64, half int) {
	nch := len(mags)
	if nch == 0 {
		*p = OnsetProfile{}
		return
	}

	for i := range OnsetBands {
		si := i * half / OnsetBands
		ei := (i+1)*half/OnsetBands - 1

		if ei < 0 {
			ei = 0
		}

		if si > half {
			si = half
		}

		// Windows shorter than 64 samples give bands narrower than one bin.
		if ei < si {
			ei = si
		}

		sum := 0.0

		for _, mag := range mags {
			for _, v := range mag[si : ei+1] {
				sum += v
			}
		}

		p[i] = sum / float64((ei-si+1)*nch)
	}
}

// Sum returns the total band energy.
func (p OnsetProfile) Sum() float64 {
	sum := 0.0
	for _, v := range p {
		if v < 0 {
			v = -v
		}

		sum += v
	}

	return sum
}

// OnsetScore returns cur.Sum()/prev.Sum(), or 1 when prev carries less than
// 1e-10 total energy.
func OnsetScore(cur, prev OnsetProfile) float64 {
	den := prev.Sum()
	if den < onsetEnergyFloor {
		return 1
	}

	return cur.Sum() / den
}
