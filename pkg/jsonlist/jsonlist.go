package jsonlist

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// 本包提供字符串列表与JSON数据库列之间的转换。
// 名称集合类的列(克制关系、概览名单、图鉴条目)都存为JSON列表。

// Marshal 把名称列表编码为JSON列。nil列表编码为空列表而不是null。
func Marshal(names []string) datatypes.JSON {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		// []string 的编码不可能失败
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

// Unmarshal 把JSON列解码为名称列表。空列或畸形列得到空列表。
func Unmarshal(column datatypes.JSON) []string {
	if len(column) == 0 {
		return []string{}
	}
	var names []string
	if err := json.Unmarshal(column, &names); err != nil {
		return []string{}
	}
	if names == nil {
		return []string{}
	}
	return names
}
