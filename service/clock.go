package service

import "time"

// Clock 便于测试时固定时间
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// RealClock 系统时间（UTC）
func RealClock() Clock {
	return realClock{}
}
