package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrConstraintViolation はデータがスキーマの制約（桁数・型・CHECK制約など）を満たさないことを表す。
// 同じデータで再試行しても結果は変わらない。
var ErrConstraintViolation = errors.New("repository: constraint violation")

// PostgreSQLのSQLSTATEクラス
const (
	pqClassDataException       pq.ErrorClass = "22"
	pqClassIntegrityConstraint pq.ErrorClass = "23"
)

// classifyPQError はデータ起因のエラーをErrConstraintViolationでラップする。
// それ以外のエラーはそのまま返す。
func classifyPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Class() {
	case pqClassDataException, pqClassIntegrityConstraint:
		return errors.Join(ErrConstraintViolation, err)
	}
	return err
}
