package main

import "datahub-cleanser/cmd"

// @title 数据清洗服务 API
// @version 1.0
// @description 表格数据清洗服务，提供清洗运行、运行记录查询、定时清洗任务和运行事件订阅
// @BasePath /
func main() {
	cmd.Execute()
}
