package cpu

const (
	MEMORY_SIZE = 0x10000 // Default memory size, one word per 16-bit address.
)

// Bus is the flat word-addressable memory shared by the assembler (as an
// output sink) and the CPU. It is the sole owner of the backing array;
// all bounds violations are absorbed here so higher layers can treat
// memory as infinite with defined edge behavior.
type Bus struct {
	memory []uint16
}

// NewBus creates a zero-filled memory of the given word count.
func NewBus(size uint) (bus *Bus) {
	bus = &Bus{
		memory: make([]uint16, size),
	}

	return
}

// Size returns the number of addressable words.
func (bus *Bus) Size() uint {
	return uint(len(bus.memory))
}

// Read returns the word at address, or 0 if address is out of bounds.
func (bus *Bus) Read(address uint16) (value uint16) {
	if uint(address) < bus.Size() {
		value = bus.memory[address]
	}

	return
}

// Write stores value at address. Out of bounds writes are silent no-ops.
func (bus *Bus) Write(address uint16, value uint16) {
	if uint(address) < bus.Size() {
		bus.memory[address] = value
	}
}
