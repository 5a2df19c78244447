// Package mq7 converts raw ADC samples of an MQ7-style gas sensor into
// calibrated gas units. It contains:
//
//   - Calibration: the ADC domain and the gas-unit range of a sensor
//   - MapADCToGas: the clamped linear mapping with the default calibration
//   - Classify: a threshold check that flags elevated gas readings
//
// Mapping never fails. Samples outside the ADC domain saturate to the bounds
// of the gas-unit range.
package mq7
