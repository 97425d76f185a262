package handlers

const (
	// FilterWarning は禁止語を含むメッセージへの返信です。
	FilterWarning = "욕하지 마세염!"

	// ReadyStatus はログイン後に表示するステータスです。
	ReadyStatus = "/노래 플레이어 | Nabi"
)
