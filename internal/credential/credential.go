package credential

import (
	"encoding/json"
	"os"
	"path/filepath"

	"edu_dashboard_client/internal/model"
)

const fileName = "session.json"

// Record 落盘的会话凭证。token 必填，身份信息尽力保存用于
// 重启后的展示，真正的有效性由下一次带凭证的请求裁决。
type Record struct {
	Token string      `json:"token"`
	User  *model.User `json:"user,omitempty"`
}

// FileStore 单文件凭证存储。UI流程保证同一时刻只有一个写入方，
// 不提供跨进程同步。
type FileStore struct {
	path string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, fileName)}
}

func (s *FileStore) Save(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	// 先写临时文件再改名，避免读到半截内容
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load 读取持久化的凭证，文件不存在表示没有会话
func (s *FileStore) Load() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if rec.Token == "" {
		return nil, nil
	}
	return &rec, nil
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
