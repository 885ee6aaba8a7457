package pt2itp

import (
	"sort"
)

// matchedAddress is address point assigned to a network run
type matchedAddress struct {
	index int
	attrs AddressAttributes
	coord []float64
	loc   lineLocation
}

// interpolationRange is parity and house number bounds of one side of a network run.
// Fields are nil when side has no numeric house numbers
type interpolationRange struct {
	parity interface{}
	from   interface{}
	to     interface{}
}

// computeRanges returns left and right ranges of a run for all matched addresses.
// Addresses excluded from output still shape the bounds
func computeRanges(matched []matchedAddress) (interpolationRange, interpolationRange) {
	left := make([]matchedAddress, 0, len(matched))
	right := make([]matchedAddress, 0, len(matched))
	for _, addr := range matched {
		switch addr.loc.side {
		case 1:
			left = append(left, addr)
		case -1:
			right = append(right, addr)
		}
	}
	return sideRange(left), sideRange(right)
}

func sideRange(addrs []matchedAddress) interpolationRange {
	type numbered struct {
		number int
		along  float64
	}
	numbers := make([]numbered, 0, len(addrs))
	for _, addr := range addrs {
		n, ok := addr.attrs.Number.Numeric()
		if !ok {
			continue
		}
		numbers = append(numbers, numbered{number: n, along: addr.loc.along})
	}
	if len(numbers) == 0 {
		return interpolationRange{}
	}
	sort.SliceStable(numbers, func(i, j int) bool {
		return numbers[i].along < numbers[j].along
	})

	minNumber, maxNumber := numbers[0].number, numbers[0].number
	odd, even := 0, 0
	for _, n := range numbers {
		if n.number < minNumber {
			minNumber = n.number
		}
		if n.number > maxNumber {
			maxNumber = n.number
		}
		if n.number%2 == 0 {
			even++
		} else {
			odd++
		}
	}

	parity := ParityBoth
	if even == 0 {
		parity = ParityOdd
	} else if odd == 0 {
		parity = ParityEven
	}

	// Numbers decrease along the run
	if numbers[0].number > numbers[len(numbers)-1].number {
		return interpolationRange{parity: parity, from: maxNumber, to: minNumber}
	}
	return interpolationRange{parity: parity, from: minNumber, to: maxNumber}
}
