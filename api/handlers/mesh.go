package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/amywork777/jewelry-sub001/mesh"
	"github.com/amywork777/jewelry-sub001/types"
	"go.uber.org/zap"
)

// =============================================================================
// 💎 程序化网格处理器
// =============================================================================

// MeshHandler 生成并下发程序化首饰网格
type MeshHandler struct {
	logger *zap.Logger
}

// NewMeshHandler 创建网格处理器
func NewMeshHandler(logger *zap.Logger) *MeshHandler {
	return &MeshHandler{logger: logger.With(zap.String("handler", "mesh"))}
}

// HandleNecklace 处理 GET /api/v1/mesh/necklace
func (h *MeshHandler) HandleNecklace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest,
			"method not allowed", h.logger)
		return
	}

	params, err := parseNecklaceParams(r)
	if err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			err.Error(), h.logger)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "stl"
	}
	if format != "stl" && format != "obj" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			"format must be stl or obj", h.logger)
		return
	}

	m, err := mesh.Necklace(params)
	if err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
			err.Error(), h.logger)
		return
	}

	var buf bytes.Buffer
	var contentType, filename string
	switch format {
	case "stl":
		contentType, filename = "model/stl", "necklace.stl"
		err = mesh.EncodeBinarySTL(&buf, m)
	case "obj":
		contentType, filename = "model/obj", "necklace.obj"
		err = mesh.EncodeOBJ(&buf, m)
	}
	if err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrInternalError,
			"mesh encoding failed", h.logger)
		return
	}

	h.logger.Info("necklace mesh generated",
		zap.String("format", format),
		zap.Int("triangles", len(m.Triangles)),
		zap.Int("bytes", buf.Len()),
	)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// parseNecklaceParams 从查询参数填充几何参数，缺省项用默认值
func parseNecklaceParams(r *http.Request) (mesh.NecklaceParams, error) {
	p := mesh.DefaultNecklaceParams()
	q := r.URL.Query()

	if err := parseFloat(q.Get("radius"), &p.Radius); err != nil {
		return p, err
	}
	if err := parseFloat(q.Get("thickness"), &p.Thickness); err != nil {
		return p, err
	}
	if err := parseFloat(q.Get("beadRadius"), &p.BeadRadius); err != nil {
		return p, err
	}
	if err := parseInt(q.Get("beads"), &p.Beads); err != nil {
		return p, err
	}
	if err := parseInt(q.Get("segments"), &p.Segments); err != nil {
		return p, err
	}
	if err := parseInt(q.Get("sides"), &p.Sides); err != nil {
		return p, err
	}

	return p, nil
}

func parseFloat(s string, dst *float64) error {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func parseInt(s string, dst *int) error {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
