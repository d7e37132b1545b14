package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"routefinder/pkg/domain"
)

// MatrixHash хеш содержимого матрицы. Равные матрицы дают равный хеш.
func MatrixHash(m *domain.Matrix) string {
	if m == nil {
		return ""
	}

	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(m.Size()))
	h.Write(buf[:])
	for _, v := range m.Values() {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// RouteKey ключ результата запроса маршрутов
func RouteKey(matrixHash string, source int, maxRouteLength int64) string {
	return fmt.Sprintf("routes:%s:%d:%d", matrixHash, source, maxRouteLength)
}
