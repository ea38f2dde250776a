// 包 mesh 生成可打印的程序化首饰几何。
//
// 目前支持环面（torus）链体加均布珠子的项链网格，并提供二进制 STL
// 与 Wavefront OBJ 两种编码。几何单位为毫米。
package mesh
