package notify

import "go.uber.org/zap"

// Notifier 面向用户的瞬时提示（toast的无头版本）。
// 提示只展示不中断，错误同时落进对应store的错误字段。
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Success(msg string) {
	n.log.Info("notice", zap.String("kind", "success"), zap.String("msg", msg))
}

func (n *LogNotifier) Error(msg string) {
	n.log.Warn("notice", zap.String("kind", "error"), zap.String("msg", msg))
}
