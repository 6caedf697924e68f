/*
 * @module service/cleansing/script_executor
 * @description 字段标准化自定义脚本执行器，基于 Yaegi 解释执行 Go 代码片段
 * @architecture 分层架构 - 数据清洗层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 脚本哈希 -> 缓存命中/编译 -> 调用 Transform(value)
 * @rules 脚本体必须返回 (string, error)，编译结果按脚本哈希缓存；单值执行超时后中断解释器
 * @dependencies github.com/traefik/yaegi
 * @refs standardizer.go
 */

package cleansing

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// DefaultScriptTimeout 单个值的脚本执行超时
const DefaultScriptTimeout = time.Second

// ScriptExecutor Yaegi脚本执行器，支持缓存
type ScriptExecutor struct {
	mu      sync.RWMutex
	cache   map[string]*CompiledScript
	timeout time.Duration
}

// CompiledScript 编译后的脚本，保存解释器实例
type CompiledScript struct {
	mu       sync.Mutex
	i        *interp.Interpreter
	compiled time.Time // 编译时间
	hash     string    // 脚本哈希
}

// NewScriptExecutor 创建脚本执行器
func NewScriptExecutor() *ScriptExecutor {
	return NewScriptExecutorWithTimeout(DefaultScriptTimeout)
}

// NewScriptExecutorWithTimeout 创建指定单值超时的脚本执行器，timeout<=0 时使用默认值
func NewScriptExecutorWithTimeout(timeout time.Duration) *ScriptExecutor {
	if timeout <= 0 {
		timeout = DefaultScriptTimeout
	}
	return &ScriptExecutor{
		cache:   make(map[string]*CompiledScript),
		timeout: timeout,
	}
}

// Execute 对单个值执行脚本，超时或上下文取消时中断解释器
func (y *ScriptExecutor) Execute(ctx context.Context, script string, value string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	hash := fmt.Sprintf("%x", sha1.Sum([]byte(script)))

	y.mu.RLock()
	compiled, ok := y.cache[hash]
	y.mu.RUnlock()

	if !ok {
		var err error
		compiled, err = y.compile(script, hash)
		if err != nil {
			return "", &ConfigurationError{Reason: err.Error()}
		}

		y.mu.Lock()
		y.cache[hash] = compiled
		y.mu.Unlock()
	}

	callCtx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	compiled.mu.Lock()
	v, err := compiled.i.EvalWithContext(callCtx, "Invoke("+strconv.Quote(value)+")")
	compiled.mu.Unlock()
	if err != nil {
		if ctxErr := callCtx.Err(); ctxErr != nil {
			return "", fmt.Errorf("脚本执行中断(超时 %s): %w", y.timeout, ctxErr)
		}
		return "", fmt.Errorf("脚本执行失败: %w", err)
	}

	out, ok := v.Interface().([]string)
	if !ok || len(out) == 0 {
		return "", fmt.Errorf("脚本返回格式错误: %v", v)
	}
	if len(out) > 1 {
		return "", errors.New(out[1])
	}
	return out[0], nil
}

// Validate 验证脚本语法
func (y *ScriptExecutor) Validate(script string) error {
	_, err := y.compile(script, "")
	return err
}

// CacheSize 已缓存的脚本数量
func (y *ScriptExecutor) CacheSize() int {
	y.mu.RLock()
	defer y.mu.RUnlock()
	return len(y.cache)
}

// compile 编译脚本，脚本体即 Transform 函数体，入参为 value
func (y *ScriptExecutor) compile(script, hash string) (*CompiledScript, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载标准库失败: %w", err)
	}

	wrapped := fmt.Sprintf(`
package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	_ = fmt.Sprintf
	_ = regexp.MustCompile
	_ = strconv.Itoa
	_ = strings.TrimSpace
	_ = unicode.IsSpace
)

func Transform(value string) (string, error) {
%s
}

// Invoke 返回 [结果] 或 [结果, 错误信息]
func Invoke(value string) []string {
	out, err := Transform(value)
	if err != nil {
		return []string{out, err.Error()}
	}
	return []string{out}
}
`, script)

	if _, err := i.Eval(wrapped); err != nil {
		return nil, fmt.Errorf("脚本编译失败: %w", err)
	}

	v, err := i.Eval("Transform")
	if err != nil {
		return nil, fmt.Errorf("脚本缺少 Transform 函数: %w", err)
	}
	if _, ok := v.Interface().(func(string) (string, error)); !ok {
		return nil, fmt.Errorf("Transform 函数签名必须是 func(string) (string, error)")
	}

	return &CompiledScript{
		i:        i,
		compiled: time.Now(),
		hash:     hash,
	}, nil
}
