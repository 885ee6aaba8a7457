package pt2itp

import (
	"math"

	"github.com/paulmach/orb"
)

type MovementType uint16

const (
	MOVEMENT_THRU = MovementType(iota + 1)
	MOVEMENT_RIGHT
	MOVEMENT_LEFT
	MOVEMENT_U_TURN
)

func (iotaIdx MovementType) String() string {
	return [...]string{"thru", "right", "left", "u_turn"}[iotaIdx-1]
}

// movementAtVertex returns movement made at vertex cur while travelling prev -> cur -> next and signed turn angle (radians)
// Note: Euclidean space
func movementAtVertex(prev, cur, next orb.Point) (MovementType, float64) {
	angle1 := math.Atan2(cur.Y()-prev.Y(), cur.X()-prev.X())
	angle2 := math.Atan2(next.Y()-cur.Y(), next.X()-cur.X())

	angleDiff := angle2 - angle1
	if angleDiff < -1*math.Pi {
		angleDiff += 2 * math.Pi
	}
	if angleDiff > math.Pi {
		angleDiff -= 2 * math.Pi
	}

	var movementType MovementType
	if -0.25*math.Pi <= angleDiff && angleDiff <= 0.25*math.Pi {
		movementType = MOVEMENT_THRU
	} else if -0.75*math.Pi <= angleDiff && angleDiff < -0.25*math.Pi {
		movementType = MOVEMENT_RIGHT
	} else if 0.25*math.Pi < angleDiff && angleDiff <= 0.75*math.Pi {
		movementType = MOVEMENT_LEFT
	} else {
		movementType = MOVEMENT_U_TURN
	}
	return movementType, angleDiff
}
