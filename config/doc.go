// Package config 提供 FluxGraph 的配置管理功能。
//
// 包含配置加载与默认值管理。
// 支持从 YAML 文件和环境变量加载配置，
// 环境变量优先于文件，文件优先于默认值。
package config
