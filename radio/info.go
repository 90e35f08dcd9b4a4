package radio

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// DriverVersion is reported by Info, major*1000 + minor*100.
const DriverVersion = 1000

// ChipInfo describes the chip.
type ChipInfo struct {
	ChipName         string
	ManufacturerName string
	Interface        string
	SupplyVoltageMin physic.ElectricPotential
	SupplyVoltageMax physic.ElectricPotential
	MaxCurrent       physic.ElectricCurrent
	TemperatureMin   physic.Temperature
	TemperatureMax   physic.Temperature
	DriverVersion    uint32
}

// Info returns the chip information.
func Info() ChipInfo {
	return ChipInfo{
		ChipName:         "NXP TEA5767",
		ManufacturerName: "NXP",
		Interface:        "IIC",
		SupplyVoltageMin: 2500 * physic.MilliVolt,
		SupplyVoltageMax: 5 * physic.Volt,
		MaxCurrent:       10500 * physic.MicroAmpere,
		TemperatureMin:   physic.ZeroCelsius - 10*physic.Kelvin,
		TemperatureMax:   physic.ZeroCelsius + 75*physic.Kelvin,
		DriverVersion:    DriverVersion,
	}
}

// Version formats DriverVersion as "major.minor".
func (i ChipInfo) Version() string {
	return fmt.Sprintf("%d.%d", i.DriverVersion/1000, i.DriverVersion%1000/100)
}
