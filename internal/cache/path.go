package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"path"
	"strings"
)

// hashKey 返回 key 的 SHA-1 十六进制摘要（40 字符）。
func hashKey(key string) string {
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// relativePath 计算条目的相对存储路径。前两级目录取摘要前四个十六进制字符
// 控制扇出，叶子使用完整摘要保证不同键不会在叶子层碰撞：
//
//	[tags/<sha1(join(",",tags))>/]<h[0:2]>/<h[2:4]>/<h>
//
// tags 非空时整体落入 tags 命名空间；无标签的读取路径永远不带该前缀。
func relativePath(key string, tags []string) string {
	h := hashKey(key)
	rel := path.Join(h[0:2], h[2:4], h)
	if len(tags) == 0 {
		return rel
	}
	return path.Join("tags", hashKey(joinTags(tags)), rel)
}

// joinTags 以逗号拼接标签，作为标签命名空间散列的输入。
func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}
