package identity

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDirectory(t *testing.T) (*GormDirectory, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	d := NewGormDirectory(db)
	d.cost = bcrypt.MinCost
	return d, mock
}

func TestGormDirectory_UpdateUserSpendsCodeInSameTransaction(t *testing.T) {
	d, mock := newMockDirectory(t)
	id := uuid.New()
	at := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	password := "brand-new"

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "one_time_codes" WHERE \(?user_id = \$1 AND purpose = \$2 AND code = \$3 AND expires_at >= \$4\)?`).
		WithArgs(id, "email", "123456", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "users" SET "password_hash"=\$1,"updated_at"=\$2 WHERE id = \$3 AND "users"."deleted_at" IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 AND "users"."deleted_at" IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "token_version"}).AddRow(id.String(), "a@b.com", 2))
	mock.ExpectCommit()

	user, err := d.UpdateUser(context.Background(), id, Changes{
		Password: &password,
		Consume:  &CodeUse{Purpose: PurposeEmailConfirm, Code: "123456", At: at},
	})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, 2, user.TokenVersion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDirectory_UpdateUserRollsBackWhenCodeAlreadySpent(t *testing.T) {
	d, mock := newMockDirectory(t)
	id := uuid.New()
	password := "brand-new"

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "one_time_codes" WHERE .*code = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := d.UpdateUser(context.Background(), id, Changes{
		Password: &password,
		Consume:  &CodeUse{Purpose: PurposePasswordReset, Code: "123456", At: time.Now()},
	})
	assert.ErrorIs(t, err, ErrNoPendingCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDirectory_UpdateUserMissing(t *testing.T) {
	d, mock := newMockDirectory(t)
	name := "New Name"

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "name"=\$1`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := d.UpdateUser(context.Background(), uuid.New(), Changes{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDirectory_PutCodeReplacesPrior(t *testing.T) {
	d, mock := newMockDirectory(t)
	id := uuid.New()
	expires := time.Date(2026, 6, 1, 10, 5, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO "one_time_codes" .* ON CONFLICT \("user_id","purpose"\) DO UPDATE SET "code"="excluded"."code","target"="excluded"."target","expires_at"="excluded"."expires_at"`).
		WithArgs(id, "phone", "654321", "+15550100", expires, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := d.PutCode(context.Background(), id, PendingCode{
		Purpose:   PurposePhone,
		Code:      "654321",
		Target:    "+15550100",
		ExpiresAt: expires,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDirectory_GetCodeMissing(t *testing.T) {
	d, mock := newMockDirectory(t)

	mock.ExpectQuery(`SELECT \* FROM "one_time_codes" WHERE \(?user_id = \$1 AND purpose = \$2\)?`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "purpose", "code"}))

	_, err := d.GetCode(context.Background(), uuid.New(), PurposePhone)
	assert.ErrorIs(t, err, ErrNoPendingCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDirectory_IncrementTokenVersion(t *testing.T) {
	d, mock := newMockDirectory(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "token_version"=token_version \+ 1,"updated_at"=\$1 WHERE id = \$2 AND "users"."deleted_at" IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT "token_version" FROM "users" WHERE id = \$1 AND "users"."deleted_at" IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"token_version"}).AddRow(4))
	mock.ExpectCommit()

	version, err := d.IncrementTokenVersion(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 4, version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDirectory_IncrementTokenVersionMissing(t *testing.T) {
	d, mock := newMockDirectory(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "token_version"=token_version \+ 1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := d.IncrementTokenVersion(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDirectory_SoftDeleteClearsCodes(t *testing.T) {
	d, mock := newMockDirectory(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "one_time_codes" WHERE user_id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE "users" SET "deleted_at"=\$1 WHERE id = \$2 AND "users"."deleted_at" IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, d.SoftDelete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDirectory_GetUserIgnoresDeleted(t *testing.T) {
	d, mock := newMockDirectory(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1 AND "users"."deleted_at" IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	_, err := d.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDirectory_CreateUserEmailHeldBySoftDeletedAccount(t *testing.T) {
	d, mock := newMockDirectory(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email = \$1$`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := d.CreateUser(context.Background(), NewUser{Email: " A@B.com ", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}
