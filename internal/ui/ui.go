// Package ui 推箱子终端客户端（bubbletea）
package ui
