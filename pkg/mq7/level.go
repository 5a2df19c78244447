package mq7

// DefaultGasThreshold is the gas level above which a reading is considered
// elevated. Higher values indicate more pollution.
const DefaultGasThreshold = 400.0

// Level is the classification of a mapped gas value.
type Level string

const (
	LevelNormal   Level = "Normal"
	LevelElevated Level = "Elevated"
)

// Classify returns LevelElevated when gas is strictly above threshold.
func Classify(gas, threshold float64) Level {
	if gas > threshold {
		return LevelElevated
	}
	return LevelNormal
}
