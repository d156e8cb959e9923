package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/canting-next/internal/config"
	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupUserAuthServiceTest(t *testing.T) (*UserAuthService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:user_auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	models.DB = db

	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "user-auth-test-secret"
	cfg.UserJWT.ExpireHours = 24

	return NewUserAuthService(cfg, repository.NewUserRepository(db)), db
}

func TestUserRegisterAndLogin(t *testing.T) {
	svc, _ := setupUserAuthServiceTest(t)

	user, err := svc.Register(UserRegisterInput{Phone: "13800138000", Password: "secret1", Nickname: "小王"})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if user.Status != constants.UserStatusActive {
		t.Fatalf("新用户应为 active，实际 %s", user.Status)
	}
	if user.PasswordHash == "secret1" {
		t.Fatal("密码不应明文入库")
	}

	// 手机号唯一
	if _, err := svc.Register(UserRegisterInput{Phone: "13800138000", Password: "another1"}); !errors.Is(err, ErrPhoneTaken) {
		t.Fatalf("重复注册应返回 ErrPhoneTaken，实际 %v", err)
	}

	logged, token, expiresAt, err := svc.Login("13800138000", "secret1")
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if token == "" || expiresAt.Before(time.Now()) {
		t.Fatalf("登录应签发有效 token: token=%q expires=%v", token, expiresAt)
	}
	if logged.LastLoginAt == nil {
		t.Fatal("登录应更新最后登录时间")
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("解析 token 失败: %v", err)
	}
	if claims.UserID != user.ID || claims.Phone != "13800138000" {
		t.Fatalf("token 声明异常: %+v", claims)
	}
}

func TestUserLoginFailures(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t)

	if _, _, _, err := svc.Login("13900000000", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("未注册手机号应返回 ErrInvalidCredentials，实际 %v", err)
	}

	user, err := svc.Register(UserRegisterInput{Phone: "13900000000", Password: "secret1"})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}

	if _, _, _, err := svc.Login("13900000000", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("错误密码应返回 ErrInvalidCredentials，实际 %v", err)
	}

	if err := db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("停用测试用户失败: %v", err)
	}
	if _, _, _, err := svc.Login("13900000000", "secret1"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("停用用户应返回 ErrUserDisabled，实际 %v", err)
	}
}

func TestUserRegisterValidation(t *testing.T) {
	svc, _ := setupUserAuthServiceTest(t)

	if _, err := svc.Register(UserRegisterInput{Phone: "", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("空手机号应返回 ErrInvalidCredentials，实际 %v", err)
	}
	if _, err := svc.Register(UserRegisterInput{Phone: "13700000000", Password: "123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("过短密码应返回 ErrInvalidCredentials，实际 %v", err)
	}
}
