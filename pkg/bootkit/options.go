package bootkit

import "time"

type bootkitOptions struct {
	startTimeout time.Duration
	stopTimeout  time.Duration
}

type bootkitApplyOptions struct {
	bootkit *bootkitOptions
}

type Option interface {
	apply(options *bootkitApplyOptions)
}

type optionFunc func(options *bootkitApplyOptions)

func (f optionFunc) apply(options *bootkitApplyOptions) {
	f(options)
}

// StartTimeout bounds how long runnables may take to register their hooks.
func StartTimeout(timeout time.Duration) Option {
	return optionFunc(func(options *bootkitApplyOptions) {
		options.bootkit.startTimeout = timeout
	})
}

// StopTimeout bounds the whole shutdown, drain waits included.
func StopTimeout(timeout time.Duration) Option {
	return optionFunc(func(options *bootkitApplyOptions) {
		options.bootkit.stopTimeout = timeout
	})
}
