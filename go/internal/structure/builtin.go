package structure

import "time"

// The built-in structures mirror the house structures the clock has always
// shipped with.
func builtins() map[string]*Structure {
	const round = 20 * time.Minute

	return map[string]*Structure{
		"Nightly TOC": New([]Level{
			Limit("Hold Em", 200, 400, round),
			Limit("Omaha Hi/Lo", 200, 500, round),
			Stud("Stud Hi/Lo", 100, 200, 600, 1200, round),
			Limit("Hold Em", 400, 800, round),
			Limit("Omaha Hi/Lo", 500, 1000, round),
			Stud("Stud Hi/Lo", 300, 400, 1200, 2400, round),
			Break(10 * time.Minute),
			Blinds("NLHE", 500, 1000, 1000, round),
			Blinds("NLHE", 600, 1200, 1200, round),
			Blinds("NLHE", 1000, 1500, 1500, round),
			Blinds("NLHE", 1000, 2000, 2000, round),
			Blinds("NLHE", 1500, 2500, 2500, round),
			Blinds("NLHE", 1500, 3000, 3000, round),
			Blinds("NLHE", 2000, 4000, 4000, round),
			Blinds("NLHE", 2500, 5000, 5000, round),
			Blinds("NLHE", 3000, 6000, 6000, round),
			Blinds("NLHE", 4000, 8000, 8000, round),
			Blinds("NLHE", 5000, 10000, 10000, round),
			Blinds("NLHE", 6000, 12000, 12000, round),
			Blinds("NLHE", 8000, 16000, 16000, round),
			Blinds("NLHE", 10000, 20000, 20000, round),
		}),
		"Nightly NLHE": New([]Level{
			Blinds("NLHE", 100, 200, 200, round),
			Blinds("NLHE", 200, 300, 300, round),
			Blinds("NLHE", 200, 400, 400, round),
			Blinds("NLHE", 300, 500, 500, round),
			Blinds("NLHE", 300, 600, 600, round),
			Break(10 * time.Minute),
			Blinds("NLHE", 400, 800, 800, round),
			Blinds("NLHE", 500, 1000, 1000, round),
			Blinds("NLHE", 600, 1200, 1200, round),
			Blinds("NLHE", 1000, 1500, 1500, round),
			Blinds("NLHE", 1000, 2000, 2000, round),
			Blinds("NLHE", 1500, 2500, 2500, round),
			Blinds("NLHE", 1500, 3000, 3000, round),
			Blinds("NLHE", 2000, 4000, 4000, round),
			Blinds("NLHE", 2500, 5000, 5000, round),
			Blinds("NLHE", 3000, 6000, 6000, round),
			Blinds("NLHE", 4000, 8000, 8000, round),
			Blinds("NLHE", 5000, 10000, 10000, round),
			Blinds("NLHE", 6000, 12000, 12000, round),
			Blinds("NLHE", 10000, 15000, 15000, round),
			Blinds("NLHE", 10000, 20000, 20000, round),
		}),
	}
}
