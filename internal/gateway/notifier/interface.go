package notifier

// TextNotifier defines a minimal text notification interface.
// It is intentionally small so different components can depend on it without
// importing concrete implementations (e.g. Telegram).
type TextNotifier interface {
	SendText(text string) error
}

// PhotoNotifier 可附带图片（例如 K 线走势图）推送。
type PhotoNotifier interface {
	SendPhoto(caption string, image []byte) error
}
