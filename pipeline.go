package minecrust

import (
	vk "github.com/vulkan-go/vulkan"
)

// Pipeline is a bound graphics pipeline and the layout it was built with.
type Pipeline struct {
	Device     *Device
	VKPipeline vk.Pipeline
	Layout     *PipelineLayout
}

func (p *Pipeline) Destroy() {
	vk.DestroyPipeline(p.Device.VKDevice, p.VKPipeline, nil)
}

type PipelineCache struct {
	Device          *Device
	VKPipelineCache vk.PipelineCache
}

func (d *Device) CreatePipelineCache() (*PipelineCache, error) {
	var pipelineCacheCreate = vk.PipelineCacheCreateInfo{}
	pipelineCacheCreate.SType = vk.StructureTypePipelineCacheCreateInfo

	var pipelineCache vk.PipelineCache

	err := vk.Error(vk.CreatePipelineCache(d.VKDevice, &pipelineCacheCreate, nil, &pipelineCache))
	if err != nil {
		return nil, err
	}

	var ret PipelineCache
	ret.Device = d
	ret.VKPipelineCache = pipelineCache
	return &ret, nil
}

func (p *PipelineCache) Destroy() {
	vk.DestroyPipelineCache(p.Device.VKDevice, p.VKPipelineCache, nil)
}

// CreateGraphicsPipeline builds a pipeline from the config for the given
// render pass and framebuffer extent.
func (d *Device) CreateGraphicsPipeline(config *GraphicsPipelineConfig, extent vk.Extent2D, renderPass vk.RenderPass) (*Pipeline, error) {
	createInfo, err := config.VKGraphicsPipelineCreateInfo(extent)
	if err != nil {
		return nil, err
	}
	createInfo.RenderPass = renderPass

	pipelines := make([]vk.Pipeline, 1)
	err = vk.Error(vk.CreateGraphicsPipelines(
		d.VKDevice, vk.NullPipelineCache,
		1, []vk.GraphicsPipelineCreateInfo{createInfo},
		nil, pipelines))
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		Device:     d,
		VKPipeline: pipelines[0],
		Layout:     config.PipelineLayout,
	}, nil
}
