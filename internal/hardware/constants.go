package hardware

const (
	// Charger detect input on the reference board
	DefaultGpioChip   = "gpiochip3"
	DefaultDetectLine = 12
	DefaultFullLine   = -1

	PowerSupplyRoot = "/sys/class/power_supply"

	gpioConsumer = "insomnia-service"
)
