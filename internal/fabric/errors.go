package fabric

import "errors"

var (
	ErrDimensions         = errors.New("fabric: invalid dimensions")
	ErrInstanceOutOfRange = errors.New("fabric: instance out of range")
	ErrJointCapacity      = errors.New("fabric: joint capacity exhausted")
	ErrIntervalCapacity   = errors.New("fabric: interval capacity exhausted")
	ErrFaceCapacity       = errors.New("fabric: face capacity exhausted")
	ErrIndexOutOfRange    = errors.New("fabric: index out of range")
	ErrBadRole            = errors.New("fabric: unknown interval role")
	ErrBadDirection       = errors.New("fabric: unknown direction")
	ErrBadClockPoint      = errors.New("fabric: clock point out of range")
	ErrBadSpan            = errors.New("fabric: negative span")
	ErrIntervalNotFound   = errors.New("fabric: no interval joins the joints")
	ErrSelfInterval       = errors.New("fabric: interval joins a joint to itself")
	ErrNoHanger           = errors.New("fabric: no hanger joint to remove")
	ErrAlreadyBorn        = errors.New("fabric: gestation already ended")
)
