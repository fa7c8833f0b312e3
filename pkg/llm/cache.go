package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketTranslations = "translations"

// Cache 翻译结果缓存
type Cache interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
}

// CacheKey 由客户端、语言对与原文计算缓存键
func CacheKey(client, source, target, text string) string {
	h := sha256.New()
	for _, part := range []string{client, source, target, text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// BoltCache 基于 bbolt 的持久化缓存
type BoltCache struct {
	db *bolt.DB
}

// OpenBoltCache 打开（必要时创建）缓存文件
func OpenBoltCache(path string) (*BoltCache, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketTranslations))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize cache %s: %w", path, err)
	}
	return &BoltCache{db: db}, nil
}

// Get 查询缓存
func (c *BoltCache) Get(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketTranslations)).Get([]byte(key))
		if v != nil {
			value, found = string(v), true
		}
		return nil
	})
	return value, found, err
}

// Put 写入缓存
func (c *BoltCache) Put(key, value string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketTranslations)).Put([]byte(key), []byte(value))
	})
}

// Close 关闭缓存文件
func (c *BoltCache) Close() error {
	return c.db.Close()
}
