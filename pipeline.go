package vitamin

import (
	vk "github.com/vulkan-go/vulkan"
)

// Pipeline is a graphics pipeline and whatever it owns.
type Pipeline interface {
	Handle() vk.Pipeline
	Destroy()
}

// PipelineProvider builds the pipeline drawn by every recorded command
// buffer. It is called again only when the render pass is rebuilt.
type PipelineProvider interface {
	CreatePipeline(d Driver, pass vk.RenderPass, extent vk.Extent2D) (Pipeline, error)
}

// ShaderPipeline is the default provider: a triangle list with no vertex
// input, drawn by the shaders found in Dir.
type ShaderPipeline struct {
	Dir string
}

type graphicsPipeline struct {
	driver   Driver
	layout   vk.PipelineLayout
	pipeline vk.Pipeline
}

func (p *graphicsPipeline) Handle() vk.Pipeline {
	return p.pipeline
}

func (p *graphicsPipeline) Destroy() {
	p.driver.DestroyPipeline(p.pipeline)
	p.driver.DestroyPipelineLayout(p.layout)
	p.pipeline, p.layout = vk.NullPipeline, vk.NullPipelineLayout
}

func (s ShaderPipeline) CreatePipeline(d Driver, pass vk.RenderPass, extent vk.Extent2D) (Pipeline, error) {
	program, err := LoadShaderProgram(d, s.Dir)
	if err != nil {
		return nil, err
	}
	defer program.Destroy()

	layout, err := d.CreatePipelineLayout(&vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	})
	if err != nil {
		return nil, kindf(ErrSetup, err, "create pipeline layout")
	}

	info := newPipelineBuilder(program.stages(), extent).build(pass, layout)
	pipeline, err := d.CreateGraphicsPipeline(&info)
	if err != nil {
		d.DestroyPipelineLayout(layout)
		return nil, kindf(ErrSetup, err, "create graphics pipeline")
	}
	Logger().Debug("pipeline created", "shaders", s.Dir)
	return &graphicsPipeline{driver: d, layout: layout, pipeline: pipeline}, nil
}

// pipelineBuilder holds fixed function state. Viewport and scissor are
// dynamic so a resize does not need a new pipeline.
type pipelineBuilder struct {
	stages        []vk.PipelineShaderStageCreateInfo
	vertexInput   vk.PipelineVertexInputStateCreateInfo
	inputAssembly vk.PipelineInputAssemblyStateCreateInfo
	viewports     []vk.Viewport
	scissors      []vk.Rect2D
	rasterizer    vk.PipelineRasterizationStateCreateInfo
	multisampling vk.PipelineMultisampleStateCreateInfo
	blend         []vk.PipelineColorBlendAttachmentState
	dynamic       []vk.DynamicState
}

func newPipelineBuilder(stages []vk.PipelineShaderStageCreateInfo, extent vk.Extent2D) *pipelineBuilder {
	return &pipelineBuilder{
		stages: stages,
		vertexInput: vk.PipelineVertexInputStateCreateInfo{
			SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
		},
		inputAssembly: vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               vk.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: vk.False,
		},
		viewports: []vk.Viewport{{
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MaxDepth: 1,
		}},
		scissors: []vk.Rect2D{{Extent: extent}},
		rasterizer: vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:   vk.FrontFaceClockwise,
			LineWidth:   1.0,
		},
		multisampling: vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
			MinSampleShading:     1.0,
		},
		blend: []vk.PipelineColorBlendAttachmentState{{
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit),
			BlendEnable: vk.False,
		}},
		dynamic: []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor},
	}
}

func (b *pipelineBuilder) build(pass vk.RenderPass, layout vk.PipelineLayout) vk.GraphicsPipelineCreateInfo {
	return vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(b.stages)),
		PStages:             b.stages,
		PVertexInputState:   &b.vertexInput,
		PInputAssemblyState: &b.inputAssembly,
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: uint32(len(b.viewports)),
			PViewports:    b.viewports,
			ScissorCount:  uint32(len(b.scissors)),
			PScissors:     b.scissors,
		},
		PRasterizationState: &b.rasterizer,
		PMultisampleState:   &b.multisampling,
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOpEnable:   vk.False,
			LogicOp:         vk.LogicOpCopy,
			AttachmentCount: uint32(len(b.blend)),
			PAttachments:    b.blend,
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(b.dynamic)),
			PDynamicStates:    b.dynamic,
		},
		Layout:     layout,
		RenderPass: pass,
		Subpass:    0,
	}
}
