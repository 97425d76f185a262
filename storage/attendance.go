package storage

import (
	"encoding/json"
	"fmt"
)

// AttendanceRecord は attendance/{guildID}/{userID} に保存される出席情報です。
type AttendanceRecord struct {
	Count    int    `json:"count"`
	LastDate string `json:"lastDate"` // YYYY-MM-DD
}

func attendancePath(guildID string) string {
	return "attendance/" + guildID
}

// CheckIn は today の出席を記録します。
// すでに today に出席済みの場合は記録を変更せず、already に true を返します。
func (s *DBStore) CheckIn(guildID, userID, today string) (record AttendanceRecord, already bool, err error) {
	path := attendancePath(guildID) + "/" + userID
	err = s.Transaction(path, func(current json.RawMessage) (any, error) {
		record = AttendanceRecord{}
		if current != nil {
			if err := json.Unmarshal(current, &record); err != nil {
				return nil, err
			}
		}
		if record.LastDate == today {
			already = true
			return record, nil
		}
		record.Count++
		record.LastDate = today
		return record, nil
	})
	if err != nil {
		return AttendanceRecord{}, false, fmt.Errorf("出席の記録に失敗しました: %w", err)
	}
	return record, already, nil
}

// GetGuildAttendance はサーバー内の全ユーザーの出席情報を返します。
func (s *DBStore) GetGuildAttendance(guildID string) (map[string]AttendanceRecord, error) {
	records := make(map[string]AttendanceRecord)
	children, err := s.Children(attendancePath(guildID))
	if err != nil {
		return nil, err
	}
	for userID, raw := range children {
		var r AttendanceRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			// 壊れたレコードはランキングから除外する
			continue
		}
		records[userID] = r
	}
	return records, nil
}
