package led

// Power limits the current drawn by a frame. The zero value disables it.
//   - WhiteCap: per-LED cap on r+g+b as a fraction of full white (0 or >=1 = off)
//   - ChanMA: mA per color channel at full scale; WS2812 is about 20 (default 20)
//   - BudgetMA: global budget in mA; 0 disables the global stage
//   - Knee: fraction of the budget where soft limiting begins (default 0.9)
type Power struct {
	WhiteCap float64 `yaml:"white_cap"`
	ChanMA   float64 `yaml:"led_chan_ma"`
	BudgetMA float64 `yaml:"budget_ma"`
	Knee     float64 `yaml:"knee"`
}

func (p Power) Enabled() bool {
	return (p.WhiteCap > 0 && p.WhiteCap < 1) || p.BudgetMA > 0
}

// Apply limits rgb in place.
func (p Power) Apply(rgb []byte) {
	if !p.Enabled() {
		return
	}
	applyWhiteCap(rgb, p.WhiteCap)

	if p.BudgetMA <= 0 {
		return
	}
	cur := p.Current(rgb)
	if cur <= 0 {
		return
	}
	knee := p.Knee
	if knee <= 0 || knee >= 1 {
		knee = 0.9
	}
	ratio := cur / p.BudgetMA
	if ratio <= knee {
		return
	}
	minS := p.BudgetMA / cur
	var s float64
	if ratio <= 1.0 {
		// map ratio in [knee,1] to scale in [1, budget/current]
		t := (ratio - knee) / (1.0 - knee)
		s = 1.0 - t*(1.0-minS)
	} else {
		s = minS
	}
	if s >= 1.0 {
		return
	}
	for i := range rgb {
		rgb[i] = byte(float64(rgb[i]) * s)
	}
}

// Current estimates the frame current in mA.
func (p Power) Current(rgb []byte) float64 {
	chanMA := p.ChanMA
	if chanMA <= 0 {
		chanMA = 20
	}
	var sum float64
	for _, v := range rgb {
		sum += float64(v)
	}
	return sum / 255.0 * chanMA
}

// applyWhiteCap clamps per-LED RGB so r+g+b <= whiteCap*3*255
func applyWhiteCap(rgb []byte, whiteCap float64) {
	if whiteCap <= 0 || whiteCap >= 1 {
		return
	}
	limit := whiteCap * 3.0 * 255.0
	for i := 0; i+2 < len(rgb); i += 3 {
		s := float64(rgb[i]) + float64(rgb[i+1]) + float64(rgb[i+2])
		if s > limit && s > 0 {
			scale := limit / s
			rgb[i] = byte(float64(rgb[i]) * scale)
			rgb[i+1] = byte(float64(rgb[i+1]) * scale)
			rgb[i+2] = byte(float64(rgb[i+2]) * scale)
		}
	}
}
