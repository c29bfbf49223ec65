package output

import "time"

type RunMetrics interface {
	RunStarted()
	RunFinished(outcome string, d time.Duration)
	RunRejected()
	StepCompleted(actions int)
	ActionFailed(name string)
}

type NopMetrics struct{}

func (NopMetrics) RunStarted()                       {}
func (NopMetrics) RunFinished(string, time.Duration) {}
func (NopMetrics) RunRejected()                      {}
func (NopMetrics) StepCompleted(int)                 {}
func (NopMetrics) ActionFailed(string)               {}
