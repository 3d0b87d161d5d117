// Package token 提供短随机标识符生成功能
// 生成的标识符用作内容记录的公开查询键,依赖统计意义上的碰撞规避
package token

import (
	"crypto/rand"
)

const (
	// alphabet 62 个字母数字符号,与标识符的公开 URL 形态兼容
	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// DefaultLength 默认标识符长度
	// 62^16 的键空间使得碰撞概率在服务预期流量下可以忽略
	DefaultLength = 16

	// rejectionBound 拒绝采样上界
	// 256 不能被 62 整除,丢弃 >= 248 的字节以保证每个符号等概率
	rejectionBound = 248
)

// Generate 生成指定长度的随机标识符
// 每个字符独立均匀地取自 62 个字母数字符号
// 每次调用持有独立的随机源读取,可安全并发调用
func Generate(length int) string {
	if length <= 0 {
		return ""
	}

	result := make([]byte, 0, length)
	buffer := make([]byte, length)

	for len(result) < length {
		_, _ = rand.Read(buffer)

		for _, b := range buffer {
			if b >= rejectionBound {
				continue
			}

			result = append(result, alphabet[int(b)%len(alphabet)])
			if len(result) == length {
				break
			}
		}
	}

	return string(result)
}
