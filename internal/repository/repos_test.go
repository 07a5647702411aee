package repository

import (
	"testing"
)

// 各Postgres実装が対応するインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ IdentityRepository = (*PostgresIdentityRepo)(nil)
	var _ AuthSessionRepository = (*PostgresAuthSessionRepo)(nil)
	var _ ProfileRepository = (*PostgresProfileRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
	var _ InsightRepository = (*PostgresInsightRepo)(nil)
}

// 各コンストラクタが正しく初期化されることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Error("NewPostgresUserRepo returned nil")
	}
	if NewPostgresIdentityRepo(nil) == nil {
		t.Error("NewPostgresIdentityRepo returned nil")
	}
	if NewPostgresAuthSessionRepo(nil) == nil {
		t.Error("NewPostgresAuthSessionRepo returned nil")
	}
	if NewPostgresProfileRepo(nil) == nil {
		t.Error("NewPostgresProfileRepo returned nil")
	}
	if NewPostgresSessionRepo(nil) == nil {
		t.Error("NewPostgresSessionRepo returned nil")
	}
	if NewPostgresInsightRepo(nil) == nil {
		t.Error("NewPostgresInsightRepo returned nil")
	}
}
